package domain

// Статусы заявки бустера
const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// Роли пользователей
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// BoostOrder - заказ на буст рейтинга
type BoostOrder struct {
	ID             int    `json:"id"`
	UserID         int    `json:"user_id"`
	Description    string `json:"description"`
	IsParty        bool   `json:"is_party"`
	IsPriority     bool   `json:"is_priority"`
	SteamUsername  string `json:"steam_username,omitempty"`
	SteamPassword  string `json:"steam_password,omitempty"`
	StartRating    int    `json:"start_rating"`
	CurrentRating  int    `json:"current_rating"`
	RequiredRating int    `json:"required_rating"`
	IsPaid         bool   `json:"is_paid"`
	IsClosed       bool   `json:"is_closed"`
	BoosterID      *int   `json:"booster_id,omitempty"`
}

// Booster держит максимум один заказ (OrderID == nil => свободен)
type Booster struct {
	ID      int  `json:"id"`
	UserID  int  `json:"user_id"`
	OrderID *int `json:"order_id,omitempty"`
}

type BoosterApplication struct {
	ID               int     `json:"id"`
	UserID           int     `json:"user_id"`
	Motivation       string  `json:"motivation"`
	Contact          string  `json:"contact"`
	SteamAccountLink string  `json:"steam_account_link"`
	Status           string  `json:"status"` // pending|approved|rejected
	ReviewComment    *string `json:"review_comment,omitempty"`
}

// Batch - результат одной сессии буста, append-only
type Batch struct {
	ID          int    `json:"id"`
	Screen      string `json:"screen"`
	ReceivedMmr int    `json:"received_mmr"`
	IsWin       bool   `json:"is_win"`
	OrderID     int    `json:"order_id"`
	BoosterID   int    `json:"booster_id"`
}

type LogEntry struct {
	ID        int64  `json:"id"`
	CreatedAt string `json:"created_at"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}
