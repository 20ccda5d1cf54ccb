package reports

import "github.com/gin-gonic/gin"

type Router struct{}

func (Router) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	{
		g := v1.Group("/reports")
		g.GET("/kpi", HandlerKPI) // GET /api/v1/reports/kpi
		g.GET("/top", HandlerTop) // GET /api/v1/reports/top
	}
}
