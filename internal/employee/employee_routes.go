package employee

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	employees := r.Group("/employees")
	{
		employees.GET("", handler.GetAll)
		employees.GET("/:id", handler.GetByCode)
		employees.POST("", handler.Create)
		employees.PATCH("/:id", handler.Update)
		employees.DELETE("/:id", handler.Delete)
	}
}
