package controller

import (
	"errors"
	"learn_with_me_client/internal/service"
	"learn_with_me_client/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type PlaybackController struct {
	PlaybackService *service.PlaybackService
}

func NewPlaybackController(playbackService *service.PlaybackService) *PlaybackController {
	return &PlaybackController{PlaybackService: playbackService}
}

// OpenSession godoc
// @Summary 打开播放会话
// @Description 返回断点位置；会话按配置间隔自动上报观看进度
// @Tags 播放
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.OpenPlaybackRequest true "课程与视频"
// @Success 201 {object} util.Response{data=service.PlaybackState} "创建成功"
// @Router /api/playback [post]
func (c *PlaybackController) OpenSession(ctx *gin.Context) {
	var req service.OpenPlaybackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.PlaybackService.Open(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err, "Failed to open playback")
		return
	}
	util.Created(ctx, session.State())
}

// GetSession godoc
// @Summary 播放会话状态
// @Tags 播放
// @Produce  json
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=service.PlaybackState} "成功"
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/playback/{id} [get]
func (c *PlaybackController) GetSession(ctx *gin.Context) {
	session, ok := c.session(ctx)
	if !ok {
		return
	}
	util.Success(ctx, session.State())
}

// swagger:model PositionRequest
type PositionRequest struct {
	Seconds float64 `json:"seconds"`
}

// UpdatePosition godoc
// @Summary 更新播放位置
// @Tags 播放
// @Accept  json
// @Produce  json
// @Param   id path string true "会话ID"
// @Param   body body PositionRequest true "当前位置（秒）"
// @Success 200 {object} util.Response{data=service.PlaybackState} "成功"
// @Router /api/playback/{id}/position [put]
func (c *PlaybackController) UpdatePosition(ctx *gin.Context) {
	var req PositionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	session, ok := c.session(ctx)
	if !ok {
		return
	}
	if err := session.SetPosition(req.Seconds); err != nil {
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, session.State())
}

// Pause godoc
// @Summary 暂停
// @Tags 播放
// @Produce  json
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=service.PlaybackState} "成功"
// @Router /api/playback/{id}/pause [post]
func (c *PlaybackController) Pause(ctx *gin.Context) {
	c.apply(ctx, (*service.PlaybackSession).Pause)
}

// Resume godoc
// @Summary 继续播放
// @Tags 播放
// @Produce  json
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=service.PlaybackState} "成功"
// @Router /api/playback/{id}/resume [post]
func (c *PlaybackController) Resume(ctx *gin.Context) {
	c.apply(ctx, (*service.PlaybackSession).Resume)
}

// End godoc
// @Summary 播放结束
// @Description 按完整时长上报并标记视频完成
// @Tags 播放
// @Produce  json
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=service.PlaybackState} "成功"
// @Router /api/playback/{id}/end [post]
func (c *PlaybackController) End(ctx *gin.Context) {
	c.apply(ctx, (*service.PlaybackSession).End)
}

// CloseSession godoc
// @Summary 关闭播放会话
// @Tags 播放
// @Produce  json
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=service.PlaybackState} "成功"
// @Router /api/playback/{id} [delete]
func (c *PlaybackController) CloseSession(ctx *gin.Context) {
	state, err := c.PlaybackService.Close(ctx.Param("id"))
	if err != nil {
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

func (c *PlaybackController) apply(ctx *gin.Context, fn func(*service.PlaybackSession) error) {
	session, ok := c.session(ctx)
	if !ok {
		return
	}
	if err := fn(session); err != nil {
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, session.State())
}

func (c *PlaybackController) session(ctx *gin.Context) (*service.PlaybackSession, bool) {
	session, err := c.PlaybackService.Get(ctx.Param("id"))
	if err != nil {
		c.sessionError(ctx, err)
		return nil, false
	}
	return session, true
}

func (c *PlaybackController) sessionError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrSessionClosed):
		util.Error(ctx, http.StatusConflict, err.Error())
	default:
		respondError(ctx, err, "Playback update failed")
	}
}
