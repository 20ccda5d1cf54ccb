package reports

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	storec "saber/client/store"
	"saber/internal/pkg/common/response"
)

// rangeQuery binds an inclusive start / exclusive end date range.
type rangeQuery struct {
	Start  string `form:"start" binding:"omitempty,datetime=2006-01-02"`
	End    string `form:"end" binding:"omitempty,datetime=2006-01-02"`
	Wallet string `form:"wallet"`
	Group  string `form:"group"`
	User   string `form:"user"`
	Queue  string `form:"queue"`
}

func (rq rangeQuery) filter() storec.JobFilter {
	f := storec.JobFilter{
		WalletName: rq.Wallet,
		UserGroup:  rq.Group,
		UserName:   rq.User,
		Queue:      rq.Queue,
	}
	if rq.Start != "" {
		f.Start, _ = time.Parse("2006-01-02", rq.Start)
	}
	if rq.End != "" {
		f.End, _ = time.Parse("2006-01-02", rq.End)
	}
	return f
}

// HandlerKPI 统计区间内的计费用量汇总（CPU node-hours、GPU core-hours、作业数）。
//
// @Summary 用量汇总 KPI
// @Tags reports
// @Produce json
// @Param start query string false "起始日期 YYYY-MM-DD"
// @Param end query string false "结束日期 YYYY-MM-DD（不含）"
// @Param wallet query string false "钱包名称"
// @Param group query string false "用户组"
// @Param user query string false "用户名"
// @Param queue query string false "队列"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/reports/kpi [get]
func HandlerKPI(c *gin.Context) {
	client := storec.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "store client not initialized"})
		return
	}

	var rq rangeQuery
	if err := c.ShouldBindQuery(&rq); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid date range"})
		return
	}

	totals, err := client.GetUsageTotals(c.Request.Context(), rq.filter())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}

	// Keyed by resource class so absent classes render as zeroes client-side.
	byClass := lo.KeyBy(totals, func(t storec.UsageTotal) string { return t.ResourceType })
	c.JSON(http.StatusOK, response.Response{Results: byClass})
}

type topQuery struct {
	rangeQuery
	By    string `form:"by" binding:"required,oneof=user group wallet queue"`
	Limit int    `form:"limit" binding:"omitempty,gte=1,lte=100"`
}

// HandlerTop 统计区间内计费用量前 N 名。
//
// @Summary 用量 Top-N
// @Tags reports
// @Produce json
// @Param by query string true "维度 user|group|wallet|queue"
// @Param limit query int false "名次上限，默认 5"
// @Param start query string false "起始日期 YYYY-MM-DD"
// @Param end query string false "结束日期 YYYY-MM-DD（不含）"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/reports/top [get]
func HandlerTop(c *gin.Context) {
	client := storec.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "store client not initialized"})
		return
	}

	var tq topQuery
	if err := c.ShouldBindQuery(&tq); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid top query"})
		return
	}

	rows, err := client.GetTopByHours(c.Request.Context(), tq.By, tq.filter(), tq.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	n := len(rows)
	c.JSON(http.StatusOK, response.Response{Count: &n, Results: rows})
}
