package service

import (
	"context"
	"strconv"

	"github.com/ArgentumX/project-dotaboost-v2/internal/domain"
)

// Coordinator - транзакционная граница бизнес-логики: разрешает
// действующего пользователя в ключи сущностей, проверяет инварианты и
// делегирует атомарные переходы состояний репозиторию. Одна операция -
// одна транзакция хранилища.
type Coordinator struct {
	repo domain.Repository
}

func NewCoordinator(repo domain.Repository) *Coordinator {
	return &Coordinator{repo: repo}
}

/* ===================== ORDER LIFECYCLE ===================== */

func (s *Coordinator) CreateOrder(ctx context.Context, actorID int, in domain.CreateOrderInput) (*domain.BoostOrder, error) {
	if in.RequiredRating <= in.StartRating {
		return nil, domain.ErrInvalidRating
	}

	order := &domain.BoostOrder{
		UserID:         actorID,
		Description:    in.Description,
		IsParty:        in.IsParty,
		IsPriority:     in.IsPriority,
		SteamUsername:  in.SteamUsername,
		SteamPassword:  in.SteamPassword,
		StartRating:    in.StartRating,
		CurrentRating:  in.StartRating,
		RequiredRating: in.RequiredRating,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.repo.LogAction(&actorID, "create_order", "order_id="+strconv.Itoa(order.ID))
	return order, nil
}

func (s *Coordinator) CloseOrder(ctx context.Context, actorID, orderID int) (*domain.BoostOrder, error) {
	order, err := s.repo.CloseOrder(ctx, orderID, actorID)
	if err != nil {
		return nil, err
	}

	s.repo.LogAction(&actorID, "close_order", "order_id="+strconv.Itoa(orderID))
	return order, nil
}

func (s *Coordinator) PatchOrderDescription(ctx context.Context, actorID, orderID int, description string) (*domain.BoostOrder, error) {
	return s.repo.UpdateOrderDescription(ctx, orderID, actorID, description)
}

func (s *Coordinator) GetOrder(ctx context.Context, orderID int) (*domain.BoostOrder, error) {
	return s.repo.GetOrderByID(ctx, orderID)
}

func (s *Coordinator) ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.BoostOrder, error) {
	return s.repo.ListOrders(ctx, f)
}

func (s *Coordinator) SetOrderPaid(ctx context.Context, actorID, orderID int, isPaid bool) (*domain.BoostOrder, error) {
	order, err := s.repo.SetOrderPaid(ctx, orderID, isPaid)
	if err != nil {
		return nil, err
	}

	s.repo.LogAction(&actorID, "set_order_paid", "order_id="+strconv.Itoa(orderID))
	return order, nil
}

/* ===================== BOOSTER ASSIGNMENT ===================== */

func (s *Coordinator) ClaimOrder(ctx context.Context, actorID, orderID int) (*domain.Booster, error) {
	// не одобренный бустер не может брать заказы
	booster, err := s.repo.GetBoosterByUserID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	claimed, err := s.repo.ClaimOrder(ctx, booster.ID, orderID)
	if err != nil {
		return nil, err
	}

	s.repo.LogAction(&actorID, "take_order", "order_id="+strconv.Itoa(orderID))
	return claimed, nil
}

func (s *Coordinator) ReleaseOrder(ctx context.Context, actorID int) (*domain.Booster, error) {
	booster, err := s.repo.GetBoosterByUserID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	released, err := s.repo.ReleaseOrder(ctx, booster.ID)
	if err != nil {
		return nil, err
	}

	s.repo.LogAction(&actorID, "refuse_order", "")
	return released, nil
}

func (s *Coordinator) GetMyBooster(ctx context.Context, actorID int) (*domain.Booster, error) {
	return s.repo.GetBoosterByUserID(ctx, actorID)
}

func (s *Coordinator) ListBoosters(ctx context.Context) ([]domain.Booster, error) {
	return s.repo.ListBoosters(ctx)
}

/* ===================== APPLICATION REVIEW ===================== */

func (s *Coordinator) SubmitApplication(ctx context.Context, actorID int, in domain.SubmitApplicationInput) (*domain.BoosterApplication, error) {
	app := &domain.BoosterApplication{
		UserID:           actorID,
		Motivation:       in.Motivation,
		Contact:          in.Contact,
		SteamAccountLink: in.SteamAccountLink,
	}
	if err := s.repo.CreateApplication(ctx, app); err != nil {
		return nil, err
	}

	s.repo.LogAction(&actorID, "submit_application", "app_id="+strconv.Itoa(app.ID))
	return app, nil
}

func (s *Coordinator) GetApplication(ctx context.Context, appID int) (*domain.BoosterApplication, error) {
	return s.repo.GetApplicationByID(ctx, appID)
}

func (s *Coordinator) ApproveApplication(ctx context.Context, actorID, appID int) (*domain.BoosterApplication, error) {
	app, err := s.repo.ApproveApplication(ctx, appID)
	if err != nil {
		return nil, err
	}

	s.repo.LogAction(&actorID, "approve_application", "app_id="+strconv.Itoa(appID))
	return app, nil
}

func (s *Coordinator) RejectApplication(ctx context.Context, actorID, appID int, comment *string) (*domain.BoosterApplication, error) {
	app, err := s.repo.RejectApplication(ctx, appID, comment)
	if err != nil {
		return nil, err
	}

	s.repo.LogAction(&actorID, "reject_application", "app_id="+strconv.Itoa(appID))
	return app, nil
}

func (s *Coordinator) ListApplications(ctx context.Context, f domain.ApplicationFilter) ([]domain.BoosterApplication, error) {
	return s.repo.ListApplications(ctx, f)
}

/* ===================== BATCH RECORDER ===================== */

func (s *Coordinator) RecordBatch(ctx context.Context, actorID int, in domain.RecordBatchInput) (*domain.Batch, error) {
	booster, err := s.repo.GetBoosterByUserID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	batch := &domain.Batch{
		Screen:      in.Screen,
		ReceivedMmr: in.ReceivedMmr,
		IsWin:       in.IsWin,
		OrderID:     in.OrderID,
		BoosterID:   booster.ID,
	}
	// репозиторий ещё раз проверяет назначение внутри вставки: между
	// GetBoosterByUserID и записью заказ мог быть отпущен
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}

	s.repo.LogAction(&actorID, "record_batch", "order_id="+strconv.Itoa(in.OrderID))
	return batch, nil
}

func (s *Coordinator) ListBatches(ctx context.Context, f domain.BatchFilter) ([]domain.Batch, error) {
	return s.repo.ListBatches(ctx, f)
}
