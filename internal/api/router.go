package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRouter(h *Handler, secret string) *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	{
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.POST("/auth/logout", h.Logout)
		api.GET("/me", Auth(secret), h.Me)

		// orders (status: open|taken|closed|all)
		api.GET("/orders", Auth(secret), h.ListOrders)
		api.POST("/orders", Auth(secret), h.CreateOrder)
		api.GET("/orders/:id", Auth(secret), h.GetOrder)
		api.PATCH("/orders/:id", Auth(secret), h.PatchOrder)
		api.POST("/orders/:id/close", Auth(secret), h.CloseOrder)
		api.GET("/orders/:id/batches", Auth(secret), h.OrderBatches)
		api.GET("/my/orders", Auth(secret), h.MyOrders)

		// booster workflow
		api.GET("/booster/me", Auth(secret), h.MyBooster)
		api.POST("/booster/take", Auth(secret), h.TakeOrder)
		api.POST("/booster/refuse", Auth(secret), h.RefuseOrder)
		api.POST("/batches", Auth(secret), h.CreateBatch)

		// booster applications
		api.POST("/applications", Auth(secret), h.SubmitApplication)
		api.GET("/my/applications", Auth(secret), h.MyApplications)

		// admin
		admin := api.Group("/admin", Auth(secret), RequireAdmin())
		{
			admin.GET("/orders", h.AdminListOrders) // ?status=open|taken|closed|all
			admin.POST("/orders/:id/paid", h.AdminSetPaid)
			admin.GET("/boosters", h.AdminListBoosters)
			admin.GET("/applications", h.AdminListApplications) // ?status=pending|approved|rejected|all
			admin.GET("/applications/:id", h.AdminGetApplication)
			admin.POST("/applications/:id/approve", h.AdminApproveApplication)
			admin.POST("/applications/:id/reject", h.AdminRejectApplication)
			admin.GET("/logs", h.AdminLogs)
		}
	}

	return r
}
