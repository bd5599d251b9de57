package service

import (
	"context"
	"errors"
	"fmt"
	"learn_with_me_client/internal/api"
	"learn_with_me_client/internal/config"
	"learn_with_me_client/internal/model"
	"learn_with_me_client/internal/store"
	"learn_with_me_client/internal/util"
	"learn_with_me_client/pkg/logger"
	"learn_with_me_client/pkg/monitoring"

	"go.uber.org/zap"
)

type CourseService struct {
	API       CourseAPI
	Store     *store.CourseStore
	Scheduler Scheduler
	Retry     config.RetryConfig
}

func NewCourseService(courseAPI CourseAPI, st *store.CourseStore, scheduler Scheduler, retry config.RetryConfig) *CourseService {
	if scheduler == nil {
		scheduler = NewTimerScheduler()
	}
	return &CourseService{
		API:       courseAPI,
		Store:     st,
		Scheduler: scheduler,
		Retry:     retry,
	}
}

// FetchAllCourses 拉取课程列表，网络类失败时按 Retry 配置自动重试。
// 结果写入 Store，返回值只用于调用方直接展示，失败时为空列表。
func (s *CourseService) FetchAllCourses(ctx context.Context, manualRetry bool) []model.Course {
	if manualRetry {
		s.Store.ResetRetry()
	}
	s.Store.BeginLoading()

	if err := s.Scheduler.Sleep(ctx, s.Retry.PreFetchDelay()); err != nil {
		s.Store.FinishLoading()
		return []model.Course{}
	}

	courses, err := s.API.ListCourses(ctx)
	if err == nil {
		s.Store.ReplaceCourses(courses)
		if courses == nil {
			courses = []model.Course{}
		}
		return courses
	}

	logger.Log.Warn("Course fetch failed",
		zap.String("kind", api.KindOf(err).String()),
		zap.Int("retryCount", s.Store.RetryCount()),
		zap.Error(err),
	)

	// 请求本身被拒绝时重试没有意义
	if api.IsKind(err, api.KindRequestRejected) {
		s.Store.Fail(util.MsgInvalidRequest)
		return []model.Course{}
	}

	if attempt, ok := s.Store.NextRetry(s.Retry.MaxRetries); ok {
		monitoring.CourseFetchRetries.Inc()
		retryCtx := context.WithoutCancel(ctx)
		s.Scheduler.AfterFunc(s.Retry.Delay(), func() {
			logger.Log.Info("Auto-retrying course fetch",
				zap.Int("attempt", attempt),
				zap.Int("maxRetries", s.Retry.MaxRetries),
			)
			s.FetchAllCourses(retryCtx, false)
		})
		s.Store.SetError(fmt.Sprintf(util.MsgRetryingFormat, attempt, s.Retry.MaxRetries))
		return []model.Course{}
	}

	s.Store.Fail(courseListMessage(err))
	return []model.Course{}
}

// courseListMessage 重试耗尽后的最终文案，按优先级选择
func courseListMessage(err error) string {
	switch api.KindOf(err) {
	case api.KindRequestRejected:
		return util.MsgInvalidRequest
	case api.KindTransport:
		return util.MsgNetworkIssue
	}
	var ae *api.Error
	if errors.As(err, &ae) && ae.FromServer {
		if ae.Message != "" {
			return ae.Message
		}
		return util.MsgServerValidation
	}
	return util.MsgUnableToLoadCourses
}

// userMessage 单次操作失败时展示给用户的文案
func userMessage(err error, fallback string) string {
	if api.IsKind(err, api.KindTransport) {
		return util.MsgNetworkIssue
	}
	if msg := api.ServerMessage(err); msg != "" {
		return msg
	}
	return fallback
}

func (s *CourseService) FetchCourseDetails(ctx context.Context, courseID string) (*model.Course, error) {
	if courseID == "" {
		s.Store.SetError(util.MsgInvalidCourseID)
		return nil, api.NewValidationError("FetchCourseDetails", util.ErrCourseIDRequired.Error())
	}

	s.Store.BeginLoading()
	course, err := s.API.GetCourse(ctx, courseID)
	if err != nil {
		logger.Log.Warn("Course details fetch failed", zap.String("courseId", courseID), zap.Error(err))
		msg := util.MsgCourseDetailsFailed
		if api.IsKind(err, api.KindTransport) {
			msg = util.MsgNetworkIssue
		} else if api.ServerMessage(err) != "" {
			msg = api.ServerMessage(err)
		}
		s.Store.Fail(msg)
		return nil, err
	}

	s.Store.SetCourseDetails(course)

	// 已加载该课程进度时同步派生百分比
	progress, details := s.Store.ProgressView()
	if progress != nil && progress.CourseID == courseID {
		pct := OverallProgress(progress, details, courseID)
		s.Store.AttachUserProgress(courseID, pct)
		course.UserProgress = &pct
	}
	return course, nil
}

func (s *CourseService) FetchTeacherCourses(ctx context.Context, teacherID string) ([]model.Course, error) {
	if teacherID == "" {
		s.Store.SetError(util.MsgInvalidTeacherID)
		return nil, api.NewValidationError("FetchTeacherCourses", "teacher ID is required")
	}

	s.Store.BeginLoading()
	courses, err := s.API.ListTeacherCourses(ctx, teacherID)
	if err != nil {
		logger.Log.Warn("Teacher courses fetch failed", zap.String("teacherId", teacherID), zap.Error(err))
		s.Store.Fail(userMessage(err, util.MsgTeacherCoursesFail))
		return nil, err
	}
	s.Store.SetTeacherCourses(courses)
	if courses == nil {
		courses = []model.Course{}
	}
	return courses, nil
}

// CreateCourse 成功后异步刷新课程列表
func (s *CourseService) CreateCourse(ctx context.Context, input model.CourseInput) (*model.Course, error) {
	if len(input) == 0 {
		s.Store.SetError(util.MsgCourseDataRequired)
		return nil, api.NewValidationError("CreateCourse", util.MsgCourseDataRequired)
	}

	s.Store.BeginLoading()
	course, err := s.API.CreateCourse(ctx, input)
	if err != nil {
		logger.Log.Warn("Create course failed", zap.Error(err))
		s.Store.Fail(userMessage(err, util.MsgCreateCourseFailed))
		return nil, err
	}
	s.Store.FinishLoading()

	refreshCtx := context.WithoutCancel(ctx)
	s.Scheduler.AfterFunc(0, func() { s.FetchAllCourses(refreshCtx, false) })
	return course, nil
}

// UpdateCourse 正在查看该课程时刷新详情
func (s *CourseService) UpdateCourse(ctx context.Context, courseID string, input model.CourseInput) (*model.Course, error) {
	if courseID == "" || len(input) == 0 {
		s.Store.SetError(util.MsgUpdateRequired)
		return nil, api.NewValidationError("UpdateCourse", util.MsgUpdateRequired)
	}

	s.Store.BeginLoading()
	course, err := s.API.UpdateCourse(ctx, courseID, input)
	if err != nil {
		logger.Log.Warn("Update course failed", zap.String("courseId", courseID), zap.Error(err))
		s.Store.Fail(userMessage(err, util.MsgUpdateCourseFailed))
		return nil, err
	}
	s.Store.FinishLoading()

	if details := s.Store.CourseDetails(); details != nil && details.ID == courseID {
		refreshCtx := context.WithoutCancel(ctx)
		s.Scheduler.AfterFunc(0, func() {
			if _, err := s.FetchCourseDetails(refreshCtx, courseID); err != nil {
				logger.Log.Debug("Course details refresh failed", zap.Error(err))
			}
		})
	}
	return course, nil
}

func (s *CourseService) SetActiveCategory(category string) {
	if category == "" {
		category = store.AllCategory
	}
	s.Store.SetActiveCategory(category)
}

func (s *CourseService) FilterCoursesByCategory(category string) {
	if category == "" {
		category = store.AllCategory
	}
	s.Store.FilterCoursesByCategory(category)
}

func (s *CourseService) ResetError() {
	s.Store.ResetError()
}

func (s *CourseService) State() store.CourseState {
	return s.Store.Snapshot()
}
