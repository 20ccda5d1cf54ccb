package wallets

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	storec "saber/client/store"
	"saber/internal/pkg/common/response"
	"saber/internal/pkg/model"
)

// HandlerListWallets 获取钱包列表（分页）。
//
// @Summary 获取钱包列表（分页）
// @Tags wallets
// @Produce json
// @Param page query int false "页码，从 1 开始"
// @Param page_size query int false "每页数量，1-1000"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/wallets [get]
func HandlerListWallets(c *gin.Context) {
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

	wallets, total, err := client.GetWalletsPaged(c.Request.Context(), pq.Offset(), pq.Limit())
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
		Results:  wallets,
	})
}

type createWalletBody struct {
	Name        string `json:"name" binding:"required"`
	DisplayName string `json:"display_name"`
}

// HandlerCreateWallet 创建钱包。
//
// @Summary 创建钱包
// @Tags wallets
// @Accept json
// @Produce json
// @Param body body createWalletBody true "wallet"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/wallets [post]
func HandlerCreateWallet(c *gin.Context) {
	client := storec.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "store client not initialized"})
		return
	}

	var body createWalletBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "name is required"})
		return
	}
	if body.DisplayName == "" {
		body.DisplayName = body.Name
	}

	w := model.Wallet{Name: body.Name, DisplayName: body.DisplayName, Active: true}
	if err := client.CreateWallet(c.Request.Context(), &w); err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, response.Response{Results: w})
}

type updateWalletBody struct {
	DisplayName string `json:"display_name" binding:"required"`
	Active      *bool  `json:"active" binding:"required"`
}

// HandlerUpdateWallet 更新钱包显示名称与启用状态。
//
// @Summary 更新钱包
// @Tags wallets
// @Accept json
// @Produce json
// @Param id path int true "wallet id"
// @Param body body updateWalletBody true "wallet"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/wallets/{id} [put]
func HandlerUpdateWallet(c *gin.Context) {
	client := storec.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "store client not initialized"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid wallet id"})
		return
	}
	var body updateWalletBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "display_name and active are required"})
		return
	}

	if err := client.UpdateWallet(c.Request.Context(), id, body.DisplayName, *body.Active); err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.Response{})
}

// HandlerDeleteWallet 删除钱包（已入帐作业保留其钱包名称）。
//
// @Summary 删除钱包
// @Tags wallets
// @Produce json
// @Param id path int true "wallet id"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/wallets/{id} [delete]
func HandlerDeleteWallet(c *gin.Context) {
	client := storec.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "store client not initialized"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid wallet id"})
		return
	}
	if err := client.DeleteWallet(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.Response{})
}
