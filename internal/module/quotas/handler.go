package quotas

import (
	"net/http"

	"github.com/gin-gonic/gin"

	storec "saber/client/store"
	"saber/internal/pkg/common/response"
	"saber/internal/pkg/quota"
)

// HandlerListQuotas 查询配额使用状况。
//
// @Summary 查询配额列表
// @Tags quotas
// @Produce json
// @Param wallet query string false "钱包名称"
// @Param period query string false "记帐期间 YYYY-MM"
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/quotas [get]
func HandlerListQuotas(c *gin.Context) {
	client := storec.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "store client not initialized"})
		return
	}
	quotas, err := client.GetQuotas(c.Request.Context(), c.Query("wallet"), c.Query("period"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	n := len(quotas)
	c.JSON(http.StatusOK, response.Response{Count: &n, Results: quotas})
}

type setLimitBody struct {
	WalletName   string  `json:"wallet_name" binding:"required"`
	ResourceType string  `json:"resource_type" binding:"required,oneof=CPU GPU"`
	Period       string  `json:"period" binding:"required"`
	LimitHours   float64 `json:"limit_hours" binding:"gte=0"`
}

// HandlerSetLimit 设置配额上限（不影响已累计的用量）。
//
// @Summary 设置配额上限
// @Tags quotas
// @Accept json
// @Produce json
// @Param body body setLimitBody true "quota limit"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/quotas/limit [put]
func HandlerSetLimit(c *gin.Context) {
	client := storec.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "store client not initialized"})
		return
	}

	var body setLimitBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid quota limit"})
		return
	}
	err := client.SetQuotaLimit(c.Request.Context(), body.WalletName, body.ResourceType, body.Period, body.LimitHours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.Response{})
}

type overageQuery struct {
	WalletName   string `form:"wallet" binding:"required"`
	ResourceType string `form:"resource_type" binding:"required,oneof=CPU GPU"`
	Period       string `form:"period" binding:"required"`
}

// HandlerCheckOverage 查询单一配额键的超额状况。
//
// @Summary 查询配额超额
// @Tags quotas
// @Produce json
// @Param wallet query string true "钱包名称"
// @Param resource_type query string true "资源类别 CPU|GPU"
// @Param period query string true "记帐期间 YYYY-MM"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/quotas/overage [get]
func HandlerCheckOverage(c *gin.Context) {
	client := storec.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "store client not initialized"})
		return
	}

	var oq overageQuery
	if err := c.ShouldBindQuery(&oq); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "wallet, resource_type and period are required"})
		return
	}

	tracker := quota.NewTracker(client)
	ov, err := tracker.CheckOverage(c.Request.Context(), oq.WalletName, oq.ResourceType, oq.Period)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.Response{Results: ov})
}
