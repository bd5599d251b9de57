package controller

import (
	"learn_with_me_client/internal/service"
	"learn_with_me_client/internal/util"

	"github.com/gin-gonic/gin"
)

type MediaController struct {
	MediaService *service.MediaService
}

func NewMediaController(mediaService *service.MediaService) *MediaController {
	return &MediaController{MediaService: mediaService}
}

// ResolveImage godoc
// @Summary 解析图片地址
// @Tags 媒体
// @Produce  json
// @Param   url query string false "图片 url"
// @Param   key query string false "对象 key"
// @Param   type query string false "course 或 profile"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/media/image [get]
func (c *MediaController) ResolveImage(ctx *gin.Context) {
	kind := service.ImageCourse
	if ctx.Query("type") == string(service.ImageProfile) {
		kind = service.ImageProfile
	}
	resolved := c.MediaService.ResolveImageURL(ctx.Request.Context(), ctx.Query("url"), ctx.Query("key"), kind)
	util.Success(ctx, gin.H{"url": nullable(resolved)})
}

// ResolveVideo godoc
// @Summary 解析视频地址
// @Tags 媒体
// @Produce  json
// @Param   url query string false "视频 url"
// @Param   key query string false "对象 key"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/media/video [get]
func (c *MediaController) ResolveVideo(ctx *gin.Context) {
	resolved := c.MediaService.ResolveVideoURL(ctx.Request.Context(), ctx.Query("url"), ctx.Query("key"))
	util.Success(ctx, gin.H{"url": nullable(resolved)})
}

// ProbeVideo godoc
// @Summary 探测视频时长
// @Tags 媒体
// @Produce  json
// @Security ApiKeyAuth
// @Param   url query string true "视频地址"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 422 {object} util.Response "无法读取时长"
// @Router /api/media/probe [get]
func (c *MediaController) ProbeVideo(ctx *gin.Context) {
	source := ctx.Query("url")
	if source == "" {
		util.BadRequest(ctx, "url is required")
		return
	}
	seconds, err := c.MediaService.ProbeDurationSeconds(source)
	if err != nil {
		util.Error(ctx, 422, err.Error())
		return
	}
	util.Success(ctx, gin.H{"durationSeconds": seconds})
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
