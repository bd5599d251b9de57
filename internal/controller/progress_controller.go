package controller

import (
	"learn_with_me_client/internal/service"
	"learn_with_me_client/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// GetProgress godoc
// @Summary 当前用户的课程进度
// @Description 未报名时 data 为 null
// @Tags 学习进度
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response{data=model.CourseProgress} "成功"
// @Router /api/courses/{id}/progress [get]
func (c *ProgressController) GetProgress(ctx *gin.Context) {
	courseID := ctx.Param("id")
	progress, err := c.ProgressService.FetchProgress(ctx.Request.Context(), courseID)
	if err != nil {
		respondError(ctx, err, util.MsgProgressFailed)
		return
	}
	util.Success(ctx, gin.H{
		"progress":        progress,
		"overallProgress": c.ProgressService.CalculateOverallProgress(courseID),
	})
}

// GetOverallProgress godoc
// @Summary 课程完成百分比
// @Description 基于已加载的进度和课程详情计算，不发起网络请求
// @Tags 学习进度
// @Produce  json
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/courses/{id}/progress/overall [get]
func (c *ProgressController) GetOverallProgress(ctx *gin.Context) {
	util.Success(ctx, gin.H{
		"courseId": ctx.Param("id"),
		"percent":  c.ProgressService.CalculateOverallProgress(ctx.Param("id")),
	})
}

// GetEnrollment godoc
// @Summary 是否已报名
// @Tags 学习进度
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/courses/{id}/enrollment [get]
func (c *ProgressController) GetEnrollment(ctx *gin.Context) {
	enrolled := c.ProgressService.CheckEnrollmentStatus(ctx.Request.Context(), ctx.Param("id"))
	util.Success(ctx, gin.H{"enrolled": enrolled})
}

// Enroll godoc
// @Summary 报名课程
// @Description 已报名时返回 alreadyEnrolled=true 的占位记录
// @Tags 学习进度
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response{data=model.CourseProgress} "成功"
// @Failure 503 {object} util.Response "网络异常"
// @Router /api/courses/{id}/enroll [post]
func (c *ProgressController) Enroll(ctx *gin.Context) {
	progress, err := c.ProgressService.Enroll(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err, util.MsgEnrollFailed)
		return
	}
	util.Success(ctx, progress)
}

// swagger:model VideoProgressRequest
type VideoProgressRequest struct {
	WatchedSeconds float64 `json:"watchedSeconds"`
	Completed      bool    `json:"completed"`
}

// UpdateVideoProgress godoc
// @Summary 上报视频观看进度
// @Tags 学习进度
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Param   videoId path string true "视频ID"
// @Param   body body VideoProgressRequest true "观看秒数"
// @Success 200 {object} util.Response{data=model.VideoProgress} "成功"
// @Router /api/courses/{id}/videos/{videoId}/progress [put]
func (c *ProgressController) UpdateVideoProgress(ctx *gin.Context) {
	var req VideoProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	vp, err := c.ProgressService.UpdateVideoProgress(ctx.Request.Context(), ctx.Param("id"), ctx.Param("videoId"), req.WatchedSeconds, req.Completed)
	if err != nil {
		respondError(ctx, err, util.MsgProgressFailed)
		return
	}
	util.Success(ctx, vp)
}

// CompleteCourse godoc
// @Summary 标记课程完成
// @Tags 学习进度
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response{data=model.CourseProgress} "成功"
// @Router /api/courses/{id}/complete [post]
func (c *ProgressController) CompleteCourse(ctx *gin.Context) {
	progress, err := c.ProgressService.MarkCourseAsCompleted(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err, util.MsgCompleteFailed)
		return
	}
	util.Success(ctx, progress)
}
