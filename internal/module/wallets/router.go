package wallets

import "github.com/gin-gonic/gin"

type Router struct{}

func (Router) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	{
		g := v1.Group("/wallets")
		g.GET("", HandlerListWallets)          // GET /api/v1/wallets
		g.POST("", HandlerCreateWallet)        // POST /api/v1/wallets
		g.PUT("/:id", HandlerUpdateWallet)     // PUT /api/v1/wallets/:id
		g.DELETE("/:id", HandlerDeleteWallet)  // DELETE /api/v1/wallets/:id
	}
}
