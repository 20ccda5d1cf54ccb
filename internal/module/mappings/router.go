package mappings

import "github.com/gin-gonic/gin"

type Router struct{}

func (Router) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	{
		g := v1.Group("/mappings")
		g.GET("", HandlerListMappings)         // GET /api/v1/mappings
		g.POST("", HandlerCreateMapping)       // POST /api/v1/mappings
		g.DELETE("/:id", HandlerDeleteMapping) // DELETE /api/v1/mappings/:id
	}
}
