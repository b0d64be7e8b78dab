package storage

import (
	"context"
	"errors"
	"log"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArgentumX/project-dotaboost-v2/internal/domain"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

/* ===================== TX HELPERS ===================== */

func (r *Repository) runTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// inTx выполняет fn в транзакции; serialization failure / deadlock
// повторяется один раз, конфликт бизнес-логики не повторяется никогда.
func (r *Repository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	err := r.runTx(ctx, fn)
	if isRetryable(err) {
		err = r.runTx(ctx, fn)
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

/* ===================== USERS ===================== */

func (r *Repository) CreateUser(ctx context.Context, username, passHash, role string) (*domain.User, error) {
	u := domain.User{Username: username, Role: role}
	err := r.db.QueryRow(ctx,
		"INSERT INTO users(username, pass_hash, role) VALUES ($1,$2,$3) RETURNING id",
		username, passHash, role,
	).Scan(&u.ID)
	if isUniqueViolation(err) {
		return nil, domain.ErrUsernameTaken
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, string, error) {
	var u domain.User
	var passHash string
	err := r.db.QueryRow(ctx,
		"SELECT id, username, role, pass_hash FROM users WHERE username=$1",
		username,
	).Scan(&u.ID, &u.Username, &u.Role, &passHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", domain.ErrUserNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return &u, passHash, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx,
		"SELECT id, username, role FROM users WHERE id=$1", id,
	).Scan(&u.ID, &u.Username, &u.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

/* ===================== ORDERS ===================== */

const orderColumns = `id, user_id, description, is_party, is_priority,
	steam_username, steam_password, start_rating, current_rating,
	required_rating, is_paid, is_closed, booster_id`

func scanOrder(row pgx.Row) (*domain.BoostOrder, error) {
	var o domain.BoostOrder
	err := row.Scan(&o.ID, &o.UserID, &o.Description, &o.IsParty, &o.IsPriority,
		&o.SteamUsername, &o.SteamPassword, &o.StartRating, &o.CurrentRating,
		&o.RequiredRating, &o.IsPaid, &o.IsClosed, &o.BoosterID)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) CreateOrder(ctx context.Context, o *domain.BoostOrder) error {
	// частичный уникальный индекс uq_boost_orders_active закрывает гонку
	// двух одновременных create от одного владельца
	err := r.db.QueryRow(ctx,
		`INSERT INTO boost_orders
			(user_id, description, is_party, is_priority, steam_username,
			 steam_password, start_rating, current_rating, required_rating)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 RETURNING id`,
		o.UserID, o.Description, o.IsParty, o.IsPriority, o.SteamUsername,
		o.SteamPassword, o.StartRating, o.CurrentRating, o.RequiredRating,
	).Scan(&o.ID)
	if isUniqueViolation(err) {
		return domain.ErrActiveOrderExists
	}
	return err
}

func (r *Repository) GetOrderByID(ctx context.Context, id int) (*domain.BoostOrder, error) {
	o, err := scanOrder(r.db.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM boost_orders WHERE id=$1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.BoostOrder, error) {
	q := psql.Select(
		"id", "user_id", "description", "is_party", "is_priority",
		"steam_username", "steam_password", "start_rating", "current_rating",
		"required_rating", "is_paid", "is_closed", "booster_id",
	).From("boost_orders")

	switch f.Status {
	case "open":
		q = q.Where(sq.Eq{"is_closed": false}).Where("booster_id IS NULL")
	case "taken":
		q = q.Where(sq.Eq{"is_closed": false}).Where("booster_id IS NOT NULL")
	case "closed":
		q = q.Where(sq.Eq{"is_closed": true})
	}
	if f.OwnerID != nil {
		q = q.Where(sq.Eq{"user_id": *f.OwnerID})
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	q = q.OrderBy("id DESC").Limit(uint64(limit))

	rows, err := qQuery(ctx, r.db, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BoostOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *Repository) CloseOrder(ctx context.Context, orderID, ownerID int) (*domain.BoostOrder, error) {
	var closed *domain.BoostOrder
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var userID int
		var isClosed bool
		var boosterID *int
		err := tx.QueryRow(ctx,
			"SELECT user_id, is_closed, booster_id FROM boost_orders WHERE id=$1",
			orderID,
		).Scan(&userID, &isClosed, &boosterID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if isClosed {
			// закрытый заказ для повторного close невидим
			return domain.ErrOrderNotFound
		}
		if userID != ownerID {
			return domain.ErrNotOrderOwner
		}
		if boosterID != nil {
			return domain.ErrOrderHasBooster
		}

		// условие повторяет проверку: параллельный claim, успевший
		// между SELECT и UPDATE, оставит 0 строк
		closed, err = scanOrder(tx.QueryRow(ctx,
			`UPDATE boost_orders SET is_closed=true
			 WHERE id=$1 AND NOT is_closed AND booster_id IS NULL
			 RETURNING `+orderColumns,
			orderID,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrOrderHasBooster
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

func (r *Repository) UpdateOrderDescription(ctx context.Context, orderID, ownerID int, description string) (*domain.BoostOrder, error) {
	var updated *domain.BoostOrder
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var userID int
		err := tx.QueryRow(ctx,
			"SELECT user_id FROM boost_orders WHERE id=$1", orderID,
		).Scan(&userID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if userID != ownerID {
			return domain.ErrNotOrderOwner
		}

		updated, err = scanOrder(tx.QueryRow(ctx,
			"UPDATE boost_orders SET description=$1 WHERE id=$2 RETURNING "+orderColumns,
			description, orderID,
		))
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repository) SetOrderPaid(ctx context.Context, orderID int, isPaid bool) (*domain.BoostOrder, error) {
	o, err := scanOrder(r.db.QueryRow(ctx,
		"UPDATE boost_orders SET is_paid=$1 WHERE id=$2 RETURNING "+orderColumns,
		isPaid, orderID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

/* ===================== BOOSTERS ===================== */

func (r *Repository) GetBoosterByUserID(ctx context.Context, userID int) (*domain.Booster, error) {
	var b domain.Booster
	err := qRow(ctx, r.db, psql.
		Select("id", "user_id", "order_id").
		From("boosters").
		Where(sq.Eq{"user_id": userID}),
	).Scan(&b.ID, &b.UserID, &b.OrderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBoosterNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) ListBoosters(ctx context.Context) ([]domain.Booster, error) {
	rows, err := qQuery(ctx, r.db, psql.
		Select("id", "user_id", "order_id").
		From("boosters").
		OrderBy("id ASC"),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booster
	for rows.Next() {
		var b domain.Booster
		if err := rows.Scan(&b.ID, &b.UserID, &b.OrderID); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) ClaimOrder(ctx context.Context, boosterID, orderID int) (*domain.Booster, error) {
	var b domain.Booster
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			"SELECT id, user_id, order_id FROM boosters WHERE id=$1", boosterID,
		).Scan(&b.ID, &b.UserID, &b.OrderID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrBoosterNotFound
		}
		if err != nil {
			return err
		}
		if b.OrderID != nil {
			if *b.OrderID == orderID {
				// повторный запрос того же заказа - ничего не меняем
				return nil
			}
			return domain.ErrBoosterBusy
		}

		// единственный победитель: заказ достаётся тому, чей UPDATE
		// первым пройдёт условие booster_id IS NULL
		tag, err := tx.Exec(ctx,
			`UPDATE boost_orders SET booster_id=$1
			 WHERE id=$2 AND NOT is_closed AND booster_id IS NULL`,
			boosterID, orderID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx,
				"SELECT EXISTS(SELECT 1 FROM boost_orders WHERE id=$1)", orderID,
			).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return domain.ErrOrderNotFound
			}
			return domain.ErrOrderUnavailable
		}

		tag, err = tx.Exec(ctx,
			"UPDATE boosters SET order_id=$1 WHERE id=$2 AND order_id IS NULL",
			orderID, boosterID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			// бустер успел взять другой заказ параллельным запросом;
			// откат транзакции вернёт заказ в открытое состояние
			return domain.ErrBoosterBusy
		}
		b.OrderID = &orderID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) ReleaseOrder(ctx context.Context, boosterID int) (*domain.Booster, error) {
	var b domain.Booster
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			"SELECT id, user_id, order_id FROM boosters WHERE id=$1", boosterID,
		).Scan(&b.ID, &b.UserID, &b.OrderID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrBoosterNotFound
		}
		if err != nil {
			return err
		}
		if b.OrderID == nil {
			return domain.ErrNoActiveOrder
		}

		tag, err := tx.Exec(ctx,
			"UPDATE boosters SET order_id=NULL WHERE id=$1 AND order_id=$2",
			boosterID, *b.OrderID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNoActiveOrder
		}

		_, err = tx.Exec(ctx,
			"UPDATE boost_orders SET booster_id=NULL WHERE id=$1 AND booster_id=$2",
			*b.OrderID, boosterID,
		)
		if err != nil {
			return err
		}
		b.OrderID = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

/* ===================== APPLICATIONS ===================== */

const applicationColumns = "id, user_id, motivation, contact, steam_account_link, status, review_comment"

func scanApplication(row pgx.Row) (*domain.BoosterApplication, error) {
	var a domain.BoosterApplication
	err := row.Scan(&a.ID, &a.UserID, &a.Motivation, &a.Contact,
		&a.SteamAccountLink, &a.Status, &a.ReviewComment)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) CreateApplication(ctx context.Context, a *domain.BoosterApplication) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO booster_applications
			(user_id, motivation, contact, steam_account_link, status)
		 VALUES ($1,$2,$3,$4,$5)
		 RETURNING id`,
		a.UserID, a.Motivation, a.Contact, a.SteamAccountLink, domain.ApplicationPending,
	).Scan(&a.ID)
	if isUniqueViolation(err) {
		return domain.ErrPendingApplicationExists
	}
	if err != nil {
		return err
	}
	a.Status = domain.ApplicationPending
	return nil
}

func (r *Repository) GetApplicationByID(ctx context.Context, id int) (*domain.BoosterApplication, error) {
	a, err := scanApplication(r.db.QueryRow(ctx,
		"SELECT "+applicationColumns+" FROM booster_applications WHERE id=$1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Repository) ListApplications(ctx context.Context, f domain.ApplicationFilter) ([]domain.BoosterApplication, error) {
	q := psql.Select(
		"id", "user_id", "motivation", "contact",
		"steam_account_link", "status", "review_comment",
	).From("booster_applications")

	if f.Status != "" && f.Status != "all" {
		q = q.Where(sq.Eq{"status": f.Status})
	}
	if f.ApplicantID != nil {
		q = q.Where(sq.Eq{"user_id": *f.ApplicantID})
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	q = q.OrderBy("id DESC").Limit(uint64(limit))

	rows, err := qQuery(ctx, r.db, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BoosterApplication
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *Repository) ApproveApplication(ctx context.Context, appID int) (*domain.BoosterApplication, error) {
	var approved *domain.BoosterApplication
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var userID int
		var status string
		err := tx.QueryRow(ctx,
			"SELECT user_id, status FROM booster_applications WHERE id=$1", appID,
		).Scan(&userID, &status)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrApplicationNotFound
		}
		if err != nil {
			return err
		}
		if status != domain.ApplicationPending {
			return domain.ErrWrongApplicationStatus
		}

		approved, err = scanApplication(tx.QueryRow(ctx,
			`UPDATE booster_applications SET status=$1
			 WHERE id=$2 AND status=$3
			 RETURNING `+applicationColumns,
			domain.ApplicationApproved, appID, domain.ApplicationPending,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			// параллельный approve/reject успел раньше
			return domain.ErrWrongApplicationStatus
		}
		if err != nil {
			return err
		}

		// бустер заводится в той же транзакции; повторное одобрение
		// исторической заявки не создаст дубликат
		_, err = tx.Exec(ctx,
			"INSERT INTO boosters(user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING",
			userID,
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

func (r *Repository) RejectApplication(ctx context.Context, appID int, comment *string) (*domain.BoosterApplication, error) {
	var rejected *domain.BoosterApplication
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx,
			"SELECT status FROM booster_applications WHERE id=$1", appID,
		).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrApplicationNotFound
		}
		if err != nil {
			return err
		}
		if status != domain.ApplicationPending {
			return domain.ErrWrongApplicationStatus
		}

		rejected, err = scanApplication(tx.QueryRow(ctx,
			`UPDATE booster_applications SET status=$1, review_comment=$2
			 WHERE id=$3 AND status=$4
			 RETURNING `+applicationColumns,
			domain.ApplicationRejected, comment, appID, domain.ApplicationPending,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrWrongApplicationStatus
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

/* ===================== BATCHES ===================== */

func (r *Repository) CreateBatch(ctx context.Context, b *domain.Batch) error {
	// запись проходит только пока бустер реально держит этот заказ
	err := r.db.QueryRow(ctx,
		`INSERT INTO batches (screen, received_mmr, is_win, order_id, booster_id)
		 SELECT $1,$2,$3,$4,$5
		 WHERE EXISTS (SELECT 1 FROM boosters WHERE id=$5 AND order_id=$4)
		 RETURNING id`,
		b.Screen, b.ReceivedMmr, b.IsWin, b.OrderID, b.BoosterID,
	).Scan(&b.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	return err
}

func (r *Repository) ListBatches(ctx context.Context, f domain.BatchFilter) ([]domain.Batch, error) {
	q := psql.Select(
		"id", "screen", "received_mmr", "is_win", "order_id", "booster_id",
	).From("batches")

	if f.OrderID != nil {
		q = q.Where(sq.Eq{"order_id": *f.OrderID})
	}
	if f.BoosterID != nil {
		q = q.Where(sq.Eq{"booster_id": *f.BoosterID})
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	q = q.OrderBy("id DESC").Limit(uint64(limit))

	rows, err := qQuery(ctx, r.db, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Batch
	for rows.Next() {
		var b domain.Batch
		if err := rows.Scan(&b.ID, &b.Screen, &b.ReceivedMmr, &b.IsWin, &b.OrderID, &b.BoosterID); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

/* ===================== AUDIT ===================== */

func (r *Repository) LogAction(actorID *int, action, details string) {
	_, err := qExec(context.Background(), r.db, psql.
		Insert("logs").
		Columns("actor_id", "action", "details").
		Values(actorID, action, details),
	)
	if err != nil {
		log.Printf("audit log failed: %v", err)
	}
}

func (r *Repository) ListLogs(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	rows, err := r.db.Query(ctx,
		`SELECT l.id,
		        to_char(l.created_at, 'YYYY-MM-DD HH24:MI:SS') AS created_at,
		        COALESCE(u.username,'(deleted)') AS actor,
		        l.action,
		        l.details
		 FROM logs l
		 LEFT JOIN users u ON u.id=l.actor_id
		 ORDER BY l.id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LogEntry
	for rows.Next() {
		var e domain.LogEntry
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Actor, &e.Action, &e.Details); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
