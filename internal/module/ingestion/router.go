package ingestion

import "github.com/gin-gonic/gin"

type Router struct{}

func (Router) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	{
		g := v1.Group("/ingestion")
		g.POST("/run", HandlerRun)      // POST /api/v1/ingestion/run
		g.GET("/runs", HandlerListRuns) // GET /api/v1/ingestion/runs
	}
}
