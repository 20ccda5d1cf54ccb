package mappings

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	storec "saber/client/store"
	"saber/internal/pkg/common/response"
	"saber/internal/pkg/model"
)

// HandlerListMappings 获取所有归帐映射边。
//
// @Summary 获取归帐映射边列表
// @Description user→wallet、group→wallet、group→group 三类映射边
// @Tags mappings
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/mappings [get]
func HandlerListMappings(c *gin.Context) {
	client := storec.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "store client not initialized"})
		return
	}
	edges, err := client.GetMappingEdges(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	n := len(edges)
	c.JSON(http.StatusOK, response.Response{Count: &n, Results: edges})
}

type createMappingBody struct {
	SourceKind string `json:"source_kind" binding:"required,oneof=user group"`
	Source     string `json:"source" binding:"required"`
	TargetKind string `json:"target_kind" binding:"required,oneof=group wallet"`
	Target     string `json:"target" binding:"required"`
	Priority   int    `json:"priority"`
}

// HandlerCreateMapping 新增映射边，下次入帐运行生效。
//
// @Summary 新增归帐映射边
// @Tags mappings
// @Accept json
// @Produce json
// @Param body body createMappingBody true "mapping edge"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/mappings [post]
func HandlerCreateMapping(c *gin.Context) {
	client := storec.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "store client not initialized"})
		return
	}

	var body createMappingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid mapping edge"})
		return
	}
	// user->group has no meaning in the attribution walk.
	if body.SourceKind == model.KindUser && body.TargetKind != model.KindWallet {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "user edges must target a wallet"})
		return
	}
	if body.SourceKind == model.KindGroup && body.TargetKind == model.KindGroup && body.Source == body.Target {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "group cannot map to itself"})
		return
	}

	e := model.MappingEdge{
		SourceKind: body.SourceKind,
		Source:     body.Source,
		TargetKind: body.TargetKind,
		Target:     body.Target,
		Priority:   body.Priority,
	}
	if err := client.CreateMappingEdge(c.Request.Context(), &e); err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, response.Response{Results: e})
}

// HandlerDeleteMapping 删除映射边，下次入帐运行生效。
//
// @Summary 删除归帐映射边
// @Tags mappings
// @Produce json
// @Param id path int true "mapping edge id"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/mappings/{id} [delete]
func HandlerDeleteMapping(c *gin.Context) {
	client := storec.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "store client not initialized"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid mapping id"})
		return
	}
	if err := client.DeleteMappingEdge(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.Response{})
}
