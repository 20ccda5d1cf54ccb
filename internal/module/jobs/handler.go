package jobs

import (
	"net/http"

	"github.com/gin-gonic/gin"

	storec "saber/client/store"
	"saber/internal/pkg/common/response"
	"saber/internal/pkg/model"
)

// jobQuery binds the job listing filters from query parameters.
type jobQuery struct {
	UserName     string `form:"user"`
	UserGroup    string `form:"group"`
	Queue        string `form:"queue"`
	WalletName   string `form:"wallet"`
	ResourceType string `form:"resource_type" binding:"omitempty,oneof=CPU GPU"`
	Period       string `form:"period"`
}

// HandlerListJobs 查询已入帐的作业用量记录（分页）。
//
// @Summary 查询作业用量记录（分页）
// @Description 依 user、group、queue、wallet、resource_type、period 过滤，支持分页参数 page、page_size
// @Tags jobs
// @Produce json
// @Param user query string false "用户名"
// @Param group query string false "用户组"
// @Param queue query string false "队列"
// @Param wallet query string false "钱包名称"
// @Param resource_type query string false "资源类别 CPU|GPU"
// @Param period query string false "记帐期间 YYYY-MM"
// @Param page query int false "页码，从 1 开始"
// @Param page_size query int false "每页数量，1-1000"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/jobs [get]
func HandlerListJobs(c *gin.Context) {
	client := storec.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "store client not initialized"})
		return
	}

	var jq jobQuery
	if err := c.ShouldBindQuery(&jq); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid filter parameters"})
		return
	}

	var pq model.PagingQuery
	_ = c.ShouldBindQuery(&pq)
	pq.SetDefaults(1, 20, 100)
	if err := pq.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid paging parameters"})
		return
	}

	filter := storec.JobFilter{
		UserName:     jq.UserName,
		UserGroup:    jq.UserGroup,
		Queue:        jq.Queue,
		WalletName:   jq.WalletName,
		ResourceType: jq.ResourceType,
		Period:       jq.Period,
	}
	jobs, total, err := client.GetJobsPaged(c.Request.Context(), filter, pq.Offset(), pq.Limit())
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
		Results:  jobs,
	})
}

// HandlerListProcessedFiles lists the checksum ledger, newest first.
//
// @Summary 查询已处理的日志文件清单
// @Tags jobs
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/jobs/files [get]
func HandlerListProcessedFiles(c *gin.Context) {
	client := storec.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "store client not initialized"})
		return
	}
	files, err := client.GetProcessedFiles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	n := len(files)
	c.JSON(http.StatusOK, response.Response{Count: &n, Results: files})
}
