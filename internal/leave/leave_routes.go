package leave

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	leaves := r.Group("/leaves")
	{
		leaves.GET("", handler.GetAll)
		leaves.GET("/stats", handler.Stats)
		leaves.GET("/:id", handler.GetByID)
		leaves.POST("", handler.Create)
		leaves.POST("/:id/approve", handler.Approve)
		leaves.POST("/:id/reject", handler.Reject)
		leaves.POST("/:id/document", handler.AttachDocument)
		leaves.DELETE("/:id", handler.Delete)
	}
}
