package service_test

import (
	"context"
	"sync"

	"github.com/ArgentumX/project-dotaboost-v2/internal/domain"
)

// memoryRepo - потокобезопасная реализация domain.Repository в памяти.
// Повторяет семантику условных обновлений хранилища: проверка
// предыдущего состояния и запись выполняются под одним мьютексом.
type memoryRepo struct {
	mu       sync.Mutex
	nextID   int
	users    map[int]*domain.User
	orders   map[int]*domain.BoostOrder
	boosters map[int]*domain.Booster
	apps     map[int]*domain.BoosterApplication
	batches  []domain.Batch
	actions  []string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		users:    map[int]*domain.User{},
		orders:   map[int]*domain.BoostOrder{},
		boosters: map[int]*domain.Booster{},
		apps:     map[int]*domain.BoosterApplication{},
	}
}

func (m *memoryRepo) id() int {
	m.nextID++
	return m.nextID
}

/* ----------- users ----------- */

func (m *memoryRepo) CreateUser(_ context.Context, username, _, role string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return nil, domain.ErrUsernameTaken
		}
	}
	u := &domain.User{ID: m.id(), Username: username, Role: role}
	m.users[u.ID] = u
	out := *u
	return &out, nil
}

func (m *memoryRepo) GetUserByUsername(_ context.Context, username string) (*domain.User, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			out := *u
			return &out, "", nil
		}
	}
	return nil, "", domain.ErrUserNotFound
}

func (m *memoryRepo) GetUserByID(_ context.Context, id int) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

/* ----------- orders ----------- */

func (m *memoryRepo) CreateOrder(_ context.Context, o *domain.BoostOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orders {
		if existing.UserID == o.UserID && !existing.IsClosed {
			return domain.ErrActiveOrderExists
		}
	}
	o.ID = m.id()
	stored := *o
	m.orders[o.ID] = &stored
	return nil
}

func (m *memoryRepo) GetOrderByID(_ context.Context, id int) (*domain.BoostOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	out := *o
	return &out, nil
}

func (m *memoryRepo) ListOrders(_ context.Context, f domain.OrderFilter) ([]domain.BoostOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.BoostOrder
	for _, o := range m.orders {
		switch f.Status {
		case "open":
			if o.IsClosed || o.BoosterID != nil {
				continue
			}
		case "taken":
			if o.IsClosed || o.BoosterID == nil {
				continue
			}
		case "closed":
			if !o.IsClosed {
				continue
			}
		}
		if f.OwnerID != nil && o.UserID != *f.OwnerID {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (m *memoryRepo) CloseOrder(_ context.Context, orderID, ownerID int) (*domain.BoostOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.IsClosed {
		return nil, domain.ErrOrderNotFound
	}
	if o.UserID != ownerID {
		return nil, domain.ErrNotOrderOwner
	}
	if o.BoosterID != nil {
		return nil, domain.ErrOrderHasBooster
	}
	o.IsClosed = true
	out := *o
	return &out, nil
}

func (m *memoryRepo) UpdateOrderDescription(_ context.Context, orderID, ownerID int, description string) (*domain.BoostOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if o.UserID != ownerID {
		return nil, domain.ErrNotOrderOwner
	}
	o.Description = description
	out := *o
	return &out, nil
}

func (m *memoryRepo) SetOrderPaid(_ context.Context, orderID int, isPaid bool) (*domain.BoostOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.IsPaid = isPaid
	out := *o
	return &out, nil
}

/* ----------- boosters ----------- */

func (m *memoryRepo) GetBoosterByUserID(_ context.Context, userID int) (*domain.Booster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.boosters {
		if b.UserID == userID {
			out := *b
			return &out, nil
		}
	}
	return nil, domain.ErrBoosterNotFound
}

func (m *memoryRepo) ListBoosters(_ context.Context) ([]domain.Booster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Booster
	for _, b := range m.boosters {
		out = append(out, *b)
	}
	return out, nil
}

func (m *memoryRepo) ClaimOrder(_ context.Context, boosterID, orderID int) (*domain.Booster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boosters[boosterID]
	if !ok {
		return nil, domain.ErrBoosterNotFound
	}
	if b.OrderID != nil {
		if *b.OrderID == orderID {
			out := *b
			return &out, nil
		}
		return nil, domain.ErrBoosterBusy
	}
	o, ok := m.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if o.IsClosed || o.BoosterID != nil {
		return nil, domain.ErrOrderUnavailable
	}
	o.BoosterID = &b.ID
	oid := orderID
	b.OrderID = &oid
	out := *b
	return &out, nil
}

func (m *memoryRepo) ReleaseOrder(_ context.Context, boosterID int) (*domain.Booster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boosters[boosterID]
	if !ok {
		return nil, domain.ErrBoosterNotFound
	}
	if b.OrderID == nil {
		return nil, domain.ErrNoActiveOrder
	}
	if o, ok := m.orders[*b.OrderID]; ok && o.BoosterID != nil && *o.BoosterID == b.ID {
		o.BoosterID = nil
	}
	b.OrderID = nil
	out := *b
	return &out, nil
}

/* ----------- applications ----------- */

func (m *memoryRepo) CreateApplication(_ context.Context, a *domain.BoosterApplication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.apps {
		if existing.UserID == a.UserID && existing.Status == domain.ApplicationPending {
			return domain.ErrPendingApplicationExists
		}
	}
	a.ID = m.id()
	a.Status = domain.ApplicationPending
	stored := *a
	m.apps[a.ID] = &stored
	return nil
}

func (m *memoryRepo) GetApplicationByID(_ context.Context, id int) (*domain.BoosterApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return nil, domain.ErrApplicationNotFound
	}
	out := *a
	return &out, nil
}

func (m *memoryRepo) ListApplications(_ context.Context, f domain.ApplicationFilter) ([]domain.BoosterApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.BoosterApplication
	for _, a := range m.apps {
		if f.Status != "" && f.Status != "all" && a.Status != f.Status {
			continue
		}
		if f.ApplicantID != nil && a.UserID != *f.ApplicantID {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (m *memoryRepo) ApproveApplication(_ context.Context, appID int) (*domain.BoosterApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[appID]
	if !ok {
		return nil, domain.ErrApplicationNotFound
	}
	if a.Status != domain.ApplicationPending {
		return nil, domain.ErrWrongApplicationStatus
	}
	a.Status = domain.ApplicationApproved
	// идемпотентное заведение бустера в той же "транзакции"
	exists := false
	for _, b := range m.boosters {
		if b.UserID == a.UserID {
			exists = true
			break
		}
	}
	if !exists {
		b := &domain.Booster{ID: m.id(), UserID: a.UserID}
		m.boosters[b.ID] = b
	}
	out := *a
	return &out, nil
}

func (m *memoryRepo) RejectApplication(_ context.Context, appID int, comment *string) (*domain.BoosterApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[appID]
	if !ok {
		return nil, domain.ErrApplicationNotFound
	}
	if a.Status != domain.ApplicationPending {
		return nil, domain.ErrWrongApplicationStatus
	}
	a.Status = domain.ApplicationRejected
	a.ReviewComment = comment
	out := *a
	return &out, nil
}

/* ----------- batches ----------- */

func (m *memoryRepo) CreateBatch(_ context.Context, b *domain.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	booster, ok := m.boosters[b.BoosterID]
	if !ok || booster.OrderID == nil || *booster.OrderID != b.OrderID {
		return domain.ErrOrderNotFound
	}
	b.ID = m.id()
	m.batches = append(m.batches, *b)
	return nil
}

func (m *memoryRepo) ListBatches(_ context.Context, f domain.BatchFilter) ([]domain.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Batch
	for _, b := range m.batches {
		if f.OrderID != nil && b.OrderID != *f.OrderID {
			continue
		}
		if f.BoosterID != nil && b.BoosterID != *f.BoosterID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

/* ----------- audit ----------- */

func (m *memoryRepo) LogAction(_ *int, action, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, action)
}

func (m *memoryRepo) ListLogs(_ context.Context, _ int) ([]domain.LogEntry, error) {
	return nil, nil
}
