package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ArgentumX/project-dotaboost-v2/internal/domain"
)

// Handler держит сервис с бизнес-логикой; пользователи и аудит идут
// напрямую через репозиторий (identity - не часть координатора)
type Handler struct {
	svc    domain.Service
	users  domain.Repository
	secret string
}

func NewHandler(svc domain.Service, users domain.Repository, secret string) *Handler {
	return &Handler{svc: svc, users: users, secret: secret}
}

// ------------------- Orders -------------------

// GET /api/orders?status=open|taken|closed|all
func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.svc.ListOrders(c.Request.Context(), domain.OrderFilter{
		Status: c.Query("status"),
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	viewer := uid(c)
	admin := role(c) == domain.RoleAdmin
	for i := range orders {
		redactOrder(&orders[i], viewer, admin, nil)
	}
	c.JSON(200, orders)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req struct {
		Description    string `json:"description"`
		IsParty        *bool  `json:"is_party"`
		IsPriority     bool   `json:"is_priority"`
		SteamUsername  string `json:"steam_username"`
		SteamPassword  string `json:"steam_password"`
		StartRating    int    `json:"start_rating"`
		RequiredRating int    `json:"required_rating"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "bad json"})
		return
	}
	isParty := true
	if req.IsParty != nil {
		isParty = *req.IsParty
	}

	order, err := h.svc.CreateOrder(c.Request.Context(), uid(c), domain.CreateOrderInput{
		Description:    req.Description,
		IsParty:        isParty,
		IsPriority:     req.IsPriority,
		SteamUsername:  req.SteamUsername,
		SteamPassword:  req.SteamPassword,
		StartRating:    req.StartRating,
		RequiredRating: req.RequiredRating,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) GetOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "bad order id"})
		return
	}

	order, err := h.svc.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	// назначенный бустер видит учётные данные (ему играть с них)
	booster, _ := h.svc.GetMyBooster(c.Request.Context(), uid(c))
	redactOrder(order, uid(c), role(c) == domain.RoleAdmin, booster)
	c.JSON(200, order)
}

// PATCH /api/orders/:id - только описание, остальное неизменяемо
func (h *Handler) PatchOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "bad order id"})
		return
	}
	var req struct {
		Description string `json:"description"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "bad json"})
		return
	}

	order, err := h.svc.PatchOrderDescription(c.Request.Context(), uid(c), orderID, req.Description)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(200, order)
}

func (h *Handler) CloseOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "bad order id"})
		return
	}

	order, err := h.svc.CloseOrder(c.Request.Context(), uid(c), orderID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(200, order)
}

// GET /api/my/orders
func (h *Handler) MyOrders(c *gin.Context) {
	ownerID := uid(c)
	orders, err := h.svc.ListOrders(c.Request.Context(), domain.OrderFilter{
		Status:  c.DefaultQuery("status", "all"),
		OwnerID: &ownerID,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(200, orders)
}

// GET /api/orders/:id/batches
func (h *Handler) OrderBatches(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "bad order id"})
		return
	}

	batches, err := h.svc.ListBatches(c.Request.Context(), domain.BatchFilter{OrderID: &orderID})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(200, batches)
}

// ------------------- Booster -------------------

// POST /api/booster/take
func (h *Handler) TakeOrder(c *gin.Context) {
	var req struct {
		OrderID int `json:"order_id"`
	}
	if err := c.BindJSON(&req); err != nil || req.OrderID == 0 {
		c.JSON(400, gin.H{"error": "order_id is required"})
		return
	}

	booster, err := h.svc.ClaimOrder(c.Request.Context(), uid(c), req.OrderID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(200, booster)
}

// POST /api/booster/refuse
func (h *Handler) RefuseOrder(c *gin.Context) {
	booster, err := h.svc.ReleaseOrder(c.Request.Context(), uid(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(200, booster)
}

// GET /api/booster/me
func (h *Handler) MyBooster(c *gin.Context) {
	booster, err := h.svc.GetMyBooster(c.Request.Context(), uid(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(200, booster)
}

// ------------------- Applications -------------------

func (h *Handler) SubmitApplication(c *gin.Context) {
	var req struct {
		Motivation       string `json:"motivation"`
		Contact          string `json:"contact"`
		SteamAccountLink string `json:"steam_account_link"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "bad json"})
		return
	}

	app, err := h.svc.SubmitApplication(c.Request.Context(), uid(c), domain.SubmitApplicationInput{
		Motivation:       req.Motivation,
		Contact:          req.Contact,
		SteamAccountLink: req.SteamAccountLink,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// GET /api/my/applications
func (h *Handler) MyApplications(c *gin.Context) {
	applicantID := uid(c)
	apps, err := h.svc.ListApplications(c.Request.Context(), domain.ApplicationFilter{
		Status:      "all",
		ApplicantID: &applicantID,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(200, apps)
}

// ------------------- Batches -------------------

func (h *Handler) CreateBatch(c *gin.Context) {
	var req struct {
		OrderID     int    `json:"order_id"`
		Screen      string `json:"screen"`
		ReceivedMmr int    `json:"received_mmr"`
		IsWin       bool   `json:"is_win"`
	}
	if err := c.BindJSON(&req); err != nil || req.OrderID == 0 {
		c.JSON(400, gin.H{"error": "order_id is required"})
		return
	}

	batch, err := h.svc.RecordBatch(c.Request.Context(), uid(c), domain.RecordBatchInput{
		OrderID:     req.OrderID,
		Screen:      req.Screen,
		ReceivedMmr: req.ReceivedMmr,
		IsWin:       req.IsWin,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

// ------------------- Admin -------------------

func (h *Handler) AdminListOrders(c *gin.Context) {
	orders, err := h.svc.ListOrders(c.Request.Context(), domain.OrderFilter{
		Status: c.Query("status"),
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(200, orders)
}

// POST /api/admin/orders/:id/paid
func (h *Handler) AdminSetPaid(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "bad order id"})
		return
	}
	var req struct {
		IsPaid bool `json:"is_paid"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "bad json"})
		return
	}

	order, err := h.svc.SetOrderPaid(c.Request.Context(), uid(c), orderID, req.IsPaid)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(200, order)
}

func (h *Handler) AdminListBoosters(c *gin.Context) {
	boosters, err := h.svc.ListBoosters(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(200, boosters)
}

// GET /api/admin/applications?status=pending|approved|rejected|all
func (h *Handler) AdminListApplications(c *gin.Context) {
	apps, err := h.svc.ListApplications(c.Request.Context(), domain.ApplicationFilter{
		Status: c.DefaultQuery("status", "pending"),
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(200, apps)
}

func (h *Handler) AdminGetApplication(c *gin.Context) {
	appID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "bad application id"})
		return
	}

	app, err := h.svc.GetApplication(c.Request.Context(), appID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(200, app)
}

func (h *Handler) AdminApproveApplication(c *gin.Context) {
	appID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "bad application id"})
		return
	}

	app, err := h.svc.ApproveApplication(c.Request.Context(), uid(c), appID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(200, app)
}

func (h *Handler) AdminRejectApplication(c *gin.Context) {
	appID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "bad application id"})
		return
	}
	var req struct {
		Comment *string `json:"comment"`
	}
	_ = c.BindJSON(&req)

	app, err := h.svc.RejectApplication(c.Request.Context(), uid(c), appID, req.Comment)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(200, app)
}

func (h *Handler) AdminLogs(c *gin.Context) {
	logs, err := h.users.ListLogs(c.Request.Context(), 200)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(200, logs)
}

// ------------------- Helpers -------------------

// redactOrder прячет учётные данные Steam от всех, кроме владельца,
// админа и назначенного на заказ бустера
func redactOrder(o *domain.BoostOrder, viewerID int, isAdmin bool, viewerBooster *domain.Booster) {
	if isAdmin || o.UserID == viewerID {
		return
	}
	if viewerBooster != nil && o.BoosterID != nil && *o.BoosterID == viewerBooster.ID {
		return
	}
	o.SteamUsername = ""
	o.SteamPassword = ""
}

func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRating):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotOrderOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case domain.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("service error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
