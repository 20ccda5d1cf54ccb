package ingestion

import (
	"net/http"

	"github.com/gin-gonic/gin"

	storec "saber/client/store"
	"saber/internal/pkg/common/response"
	"saber/internal/pkg/ingest"
	"saber/internal/pkg/model"
)

// Package-level default orchestrator, wired in main like the store client.
var defaultOrchestrator *ingest.Orchestrator

// SetDefault sets the package-level default ingestion orchestrator.
func SetDefault(o *ingest.Orchestrator) { defaultOrchestrator = o }

// Default returns the package-level default ingestion orchestrator.
func Default() *ingest.Orchestrator { return defaultOrchestrator }

// HandlerRun 立即执行一次日志入帐扫描并返回运行报告。
//
// @Summary 触发入帐运行
// @Description 扫描日志目录一次；已入帐的 (文件, 校验和) 会被跳过，重复触发无副作用
// @Tags ingestion
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/ingestion/run [post]
func HandlerRun(c *gin.Context) {
	orch := Default()
	if orch == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "ingestion orchestrator not initialized"})
		return
	}
	report, err := orch.Ingest(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.Response{Results: report})
}

// HandlerListRuns 查询历史入帐运行报告（分页）。
//
// @Summary 查询入帐运行历史（分页）
// @Tags ingestion
// @Produce json
// @Param page query int false "页码，从 1 开始"
// @Param page_size query int false "每页数量，1-1000"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/ingestion/runs [get]
func HandlerListRuns(c *gin.Context) {
	client := storec.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "store client not initialized"})
		return
	}

	var pq model.PagingQuery
	_ = c.ShouldBindQuery(&pq)
	pq.SetDefaults(1, 20, 100)
	if err := pq.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid paging parameters"})
		return
	}

	runs, total, err := client.GetIngestionRunsPaged(c.Request.Context(), pq.Offset(), pq.Limit())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}

	prevURL, nextURL := response.BuildPageLinks(c.Request.URL, pq.Page, pq.PageSize, int(total))
	totalInt := int(total)
	c.JSON(http.StatusOK, response.Response{
		Count:    &totalInt,
		Previous: prevURL,
		Next:     nextURL,
		Results:  runs,
	})
}
