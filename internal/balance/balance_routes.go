package balance

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	r.POST("/employees/:id/normalize-balances", handler.NormalizeBalances)
	r.POST("/integrity/sweep", handler.Sweep)
}
