package quotas

import "github.com/gin-gonic/gin"

type Router struct{}

func (Router) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	{
		g := v1.Group("/quotas")
		g.GET("", HandlerListQuotas)          // GET /api/v1/quotas
		g.PUT("/limit", HandlerSetLimit)      // PUT /api/v1/quotas/limit
		g.GET("/overage", HandlerCheckOverage) // GET /api/v1/quotas/overage
	}
}
