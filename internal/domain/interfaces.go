package domain

import "context"

// OrderFilter - фильтры списка заказов
type OrderFilter struct {
	Status  string // open|taken|closed|all
	OwnerID *int
	Limit   int
}

type ApplicationFilter struct {
	Status      string // pending|approved|rejected|all
	ApplicantID *int
	Limit       int
}

type BatchFilter struct {
	OrderID   *int
	BoosterID *int
	Limit     int
}

// Repository описывает методы работы с базой данных.
// Каждый метод, меняющий состояние, выполняется как одна атомарная
// операция: проверка ожидаемого предыдущего состояния входит в сам
// запрос, проигранная гонка возвращает конфликтную ошибку домена.
type Repository interface {
	// Users
	CreateUser(ctx context.Context, username, passHash, role string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, string, error) // + pass_hash
	GetUserByID(ctx context.Context, id int) (*User, error)

	// Orders
	CreateOrder(ctx context.Context, order *BoostOrder) error
	GetOrderByID(ctx context.Context, id int) (*BoostOrder, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]BoostOrder, error)
	CloseOrder(ctx context.Context, orderID, ownerID int) (*BoostOrder, error)
	UpdateOrderDescription(ctx context.Context, orderID, ownerID int, description string) (*BoostOrder, error)
	SetOrderPaid(ctx context.Context, orderID int, isPaid bool) (*BoostOrder, error)

	// Boosters
	GetBoosterByUserID(ctx context.Context, userID int) (*Booster, error)
	ListBoosters(ctx context.Context) ([]Booster, error)
	ClaimOrder(ctx context.Context, boosterID, orderID int) (*Booster, error)
	ReleaseOrder(ctx context.Context, boosterID int) (*Booster, error)

	// Applications
	CreateApplication(ctx context.Context, app *BoosterApplication) error
	GetApplicationByID(ctx context.Context, id int) (*BoosterApplication, error)
	ListApplications(ctx context.Context, f ApplicationFilter) ([]BoosterApplication, error)
	// ApproveApplication переводит заявку в approved и в той же
	// транзакции заводит бустера для заявителя (идемпотентно).
	ApproveApplication(ctx context.Context, appID int) (*BoosterApplication, error)
	RejectApplication(ctx context.Context, appID int, comment *string) (*BoosterApplication, error)

	// Batches
	CreateBatch(ctx context.Context, batch *Batch) error
	ListBatches(ctx context.Context, f BatchFilter) ([]Batch, error)

	// Audit
	LogAction(actorID *int, action, details string)
	ListLogs(ctx context.Context, limit int) ([]LogEntry, error)
}

// Service - бизнес-логика, вызываемая из HTTP хендлеров.
// Каждая операция принимает id действующего пользователя явным аргументом.
type Service interface {
	CreateOrder(ctx context.Context, actorID int, in CreateOrderInput) (*BoostOrder, error)
	CloseOrder(ctx context.Context, actorID, orderID int) (*BoostOrder, error)
	PatchOrderDescription(ctx context.Context, actorID, orderID int, description string) (*BoostOrder, error)
	GetOrder(ctx context.Context, orderID int) (*BoostOrder, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]BoostOrder, error)
	SetOrderPaid(ctx context.Context, actorID, orderID int, isPaid bool) (*BoostOrder, error)

	ClaimOrder(ctx context.Context, actorID, orderID int) (*Booster, error)
	ReleaseOrder(ctx context.Context, actorID int) (*Booster, error)
	GetMyBooster(ctx context.Context, actorID int) (*Booster, error)
	ListBoosters(ctx context.Context) ([]Booster, error)

	SubmitApplication(ctx context.Context, actorID int, in SubmitApplicationInput) (*BoosterApplication, error)
	GetApplication(ctx context.Context, appID int) (*BoosterApplication, error)
	ApproveApplication(ctx context.Context, actorID, appID int) (*BoosterApplication, error)
	RejectApplication(ctx context.Context, actorID, appID int, comment *string) (*BoosterApplication, error)
	ListApplications(ctx context.Context, f ApplicationFilter) ([]BoosterApplication, error)

	RecordBatch(ctx context.Context, actorID int, in RecordBatchInput) (*Batch, error)
	ListBatches(ctx context.Context, f BatchFilter) ([]Batch, error)
}

type CreateOrderInput struct {
	Description    string
	IsParty        bool
	IsPriority     bool
	SteamUsername  string
	SteamPassword  string
	StartRating    int
	RequiredRating int
}

type SubmitApplicationInput struct {
	Motivation       string
	Contact          string
	SteamAccountLink string
}

type RecordBatchInput struct {
	OrderID     int
	Screen      string
	ReceivedMmr int
	IsWin       bool
}
