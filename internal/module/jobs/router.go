package jobs

import "github.com/gin-gonic/gin"

type Router struct{}

func (Router) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	{
		g := v1.Group("/jobs")
		g.GET("", HandlerListJobs)            // GET /api/v1/jobs
		g.GET("/files", HandlerListProcessedFiles) // GET /api/v1/jobs/files
	}
}
