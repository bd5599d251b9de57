package controller

import (
	"learn_with_me_client/internal/model"
	"learn_with_me_client/internal/service"
	"learn_with_me_client/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

// ListCourses godoc
// @Summary 拉取课程列表
// @Description 失败时自动重试，状态通过 /api/state 查看
// @Tags 课程
// @Produce  json
// @Param   retry query bool false "手动重试，重置重试计数"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	manual, _ := strconv.ParseBool(ctx.Query("retry"))
	courses := c.CourseService.FetchAllCourses(ctx.Request.Context(), manual)
	state := c.CourseService.State()

	util.Success(ctx, gin.H{
		"courses":    courses,
		"categories": state.Categories,
		"error":      state.Error,
		"isLoading":  state.IsLoading,
		"retryCount": state.RetryCount,
	})
}

// GetState godoc
// @Summary 课程状态快照
// @Tags 课程
// @Produce  json
// @Success 200 {object} util.Response{data=store.CourseState} "成功"
// @Router /api/state [get]
func (c *CourseController) GetState(ctx *gin.Context) {
	util.Success(ctx, c.CourseService.State())
}

// swagger:model CategoryRequest
type CategoryRequest struct {
	Category string `json:"category"`
}

// SetCategory godoc
// @Summary 切换当前分类并过滤课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Param   body body CategoryRequest true "分类名，All 表示全部"
// @Success 200 {object} util.Response{data=store.CourseState} "成功"
// @Router /api/state/category [put]
func (c *CourseController) SetCategory(ctx *gin.Context) {
	var req CategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.CourseService.SetActiveCategory(req.Category)
	util.Success(ctx, c.CourseService.State())
}

// ResetError godoc
// @Summary 清除错误信息
// @Tags 课程
// @Produce  json
// @Success 200 {object} util.Response "成功"
// @Router /api/state/error [delete]
func (c *CourseController) ResetError(ctx *gin.Context) {
	c.CourseService.ResetError()
	util.Success(ctx, nil)
}

// GetCourse godoc
// @Summary 课程详情
// @Tags 课程
// @Produce  json
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	course, err := c.CourseService.FetchCourseDetails(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err, util.MsgCourseDetailsFailed)
		return
	}
	util.Success(ctx, course)
}

// GetTeacherCourses godoc
// @Summary 教师的课程
// @Tags 课程
// @Produce  json
// @Param   teacherId path string true "教师ID"
// @Success 200 {object} util.Response{data=[]model.Course} "成功"
// @Router /api/teachers/{teacherId}/courses [get]
func (c *CourseController) GetTeacherCourses(ctx *gin.Context) {
	courses, err := c.CourseService.FetchTeacherCourses(ctx.Request.Context(), ctx.Param("teacherId"))
	if err != nil {
		respondError(ctx, err, util.MsgTeacherCoursesFail)
		return
	}
	util.Success(ctx, courses)
}

// CreateCourse godoc
// @Summary 创建课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body object true "课程字段"
// @Success 201 {object} util.Response{data=model.Course} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	var input model.CourseInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, util.MsgCourseDataRequired)
		return
	}

	course, err := c.CourseService.CreateCourse(ctx.Request.Context(), input)
	if err != nil {
		respondError(ctx, err, util.MsgCreateCourseFailed)
		return
	}
	util.Created(ctx, course)
}

// UpdateCourse godoc
// @Summary 更新课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Param   body body object true "更新字段"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Router /api/courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	var input model.CourseInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, util.MsgUpdateRequired)
		return
	}

	course, err := c.CourseService.UpdateCourse(ctx.Request.Context(), ctx.Param("id"), input)
	if err != nil {
		respondError(ctx, err, util.MsgUpdateCourseFailed)
		return
	}
	util.Success(ctx, course)
}
