package service

import (
	"context"
	"learn_with_me_client/internal/api"
	"learn_with_me_client/internal/model"
	"learn_with_me_client/internal/store"
	"learn_with_me_client/internal/util"
	"learn_with_me_client/pkg/logger"
	"learn_with_me_client/pkg/monitoring"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const DefaultCompletionThreshold = 0.9

// ProgressService 报名、视频进度与课程完成
type ProgressService struct {
	API       ProgressAPI
	Store     *store.CourseStore
	Users     UserIDSource
	Threshold float64

	enrollGroup singleflight.Group
}

func NewProgressService(progressAPI ProgressAPI, st *store.CourseStore, users UserIDSource, threshold float64) *ProgressService {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultCompletionThreshold
	}
	return &ProgressService{
		API:       progressAPI,
		Store:     st,
		Users:     users,
		Threshold: threshold,
	}
}

// FetchProgress 未报名时返回 nil, nil 且不设置错误信息
func (s *ProgressService) FetchProgress(ctx context.Context, courseID string) (*model.CourseProgress, error) {
	if courseID == "" {
		s.Store.SetError(util.MsgInvalidCourseID)
		return nil, api.NewValidationError("FetchProgress", util.ErrCourseIDRequired.Error())
	}

	seq := s.Store.NextProgressSeq(courseID)
	progress, err := s.API.GetCourseProgress(ctx, courseID)
	if err != nil {
		s.Store.ApplyProgress(courseID, seq, nil)
		if api.IsKind(err, api.KindNotFound) {
			logger.Log.Debug("User not enrolled", zap.String("courseId", courseID))
			return nil, nil
		}
		logger.Log.Warn("Fetch progress failed", zap.String("courseId", courseID), zap.Error(err))
		s.Store.SetError(userMessage(err, util.MsgProgressFailed))
		return nil, err
	}

	s.applyProgress(courseID, seq, progress)
	return progress, nil
}

func (s *ProgressService) applyProgress(courseID string, seq uint64, progress *model.CourseProgress) {
	if s.Store.ApplyProgress(courseID, seq, progress) {
		s.attachUserProgress(courseID)
	}
}

// CheckEnrollmentStatus 查询失败按未报名处理，"already enrolled" 冲突除外
func (s *ProgressService) CheckEnrollmentStatus(ctx context.Context, courseID string) bool {
	if courseID == "" {
		return false
	}
	if _, err := s.Users.CurrentUserID(); err != nil {
		return false
	}

	enrolled, err := s.API.IsEnrolled(ctx, courseID)
	if err != nil {
		if api.IsKind(err, api.KindConflict) {
			return true
		}
		logger.Log.Warn("Enrollment check failed", zap.String("courseId", courseID), zap.Error(err))
		return false
	}
	return enrolled
}

// Enroll 幂等：已报名时返回占位记录，并用服务端进度对齐本地状态
func (s *ProgressService) Enroll(ctx context.Context, courseID string) (*model.CourseProgress, error) {
	if courseID == "" {
		s.Store.SetError(util.MsgInvalidCourseID)
		return nil, api.NewValidationError("Enroll", util.ErrCourseIDRequired.Error())
	}
	userID, err := s.Users.CurrentUserID()
	if err != nil {
		s.Store.SetError(util.MsgLoginRequired)
		return nil, &api.Error{Kind: api.KindUnauthorized, Op: "Enroll", Err: err}
	}

	s.Store.ResetError()
	// 合并的调用共享同一次请求，不受第一个调用方断开的影响
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.enrollGroup.Do(courseID, func() (interface{}, error) {
		return s.enroll(flightCtx, courseID, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.CourseProgress).Clone(), nil
}

func (s *ProgressService) enroll(ctx context.Context, courseID, userID string) (*model.CourseProgress, error) {
	if s.CheckEnrollmentStatus(ctx, courseID) {
		logger.Log.Info("User already enrolled", zap.String("courseId", courseID))
		return s.alreadyEnrolled(ctx, courseID, userID), nil
	}

	seq := s.Store.NextProgressSeq(courseID)
	created, err := s.API.CreateEnrollment(ctx, courseID, userID)
	if err != nil {
		if api.IsKind(err, api.KindConflict) {
			logger.Log.Info("Enrollment already exists", zap.String("courseId", courseID))
			return s.alreadyEnrolled(ctx, courseID, userID), nil
		}
		logger.Log.Warn("Enroll failed", zap.String("courseId", courseID), zap.Error(err))
		s.Store.SetError(userMessage(err, util.MsgEnrollFailed))
		return nil, err
	}
	if created == nil {
		return s.alreadyEnrolled(ctx, courseID, userID), nil
	}

	s.applyProgress(courseID, seq, created)
	return created, nil
}

// alreadyEnrolled 报名本身已成功，对齐失败只记日志；拿不到服务端记录时以占位记录作为当前进度
func (s *ProgressService) alreadyEnrolled(ctx context.Context, courseID, userID string) *model.CourseProgress {
	record := model.AlreadyEnrolledRecord(courseID, userID)
	if err := s.reconcile(ctx, courseID); err != nil {
		if current := s.Store.CurrentProgress(); current == nil || current.CourseID != courseID {
			s.applyProgress(courseID, s.Store.NextProgressSeq(courseID), record)
		}
	}
	return record
}

// reconcile 用服务端记录覆盖本地进度；失败时保留现有进度，不写入 Store 错误
func (s *ProgressService) reconcile(ctx context.Context, courseID string) error {
	seq := s.Store.NextProgressSeq(courseID)
	progress, err := s.API.GetCourseProgress(ctx, courseID)
	if err != nil {
		logger.Log.Debug("Progress reconcile failed", zap.String("courseId", courseID), zap.Error(err))
		return err
	}
	s.applyProgress(courseID, seq, progress)
	return nil
}

// UpdateVideoProgress 播放器的后台上报，失败只记日志，不写入 Store 错误
func (s *ProgressService) UpdateVideoProgress(ctx context.Context, courseID, videoID string, watchedSeconds float64, completed bool) (*model.VideoProgress, error) {
	switch {
	case courseID == "":
		return nil, api.NewValidationError("UpdateVideoProgress", util.ErrCourseIDRequired.Error())
	case videoID == "":
		return nil, api.NewValidationError("UpdateVideoProgress", util.ErrVideoIDRequired.Error())
	case watchedSeconds < 0 || math.IsNaN(watchedSeconds):
		return nil, api.NewValidationError("UpdateVideoProgress", util.ErrNegativeSeconds.Error())
	}

	completed = s.deriveCompleted(courseID, videoID, watchedSeconds, completed)

	vp, err := s.API.UpdateVideoProgress(ctx, api.VideoProgressInput{
		CourseID:       courseID,
		VideoID:        videoID,
		WatchedSeconds: watchedSeconds,
		Completed:      completed,
	})
	if err != nil {
		monitoring.VideoProgressUpdates.WithLabelValues("failed").Inc()
		logger.Log.Warn("Video progress update failed",
			zap.String("courseId", courseID),
			zap.String("videoId", videoID),
			zap.Float64("watchedSeconds", watchedSeconds),
			zap.Error(err),
		)
		return nil, err
	}
	monitoring.VideoProgressUpdates.WithLabelValues("ok").Inc()

	_ = s.reconcile(ctx, courseID)
	return vp, nil
}

// deriveCompleted 已完成的视频不会被回退为未完成
func (s *ProgressService) deriveCompleted(courseID, videoID string, watchedSeconds float64, completed bool) bool {
	if completed {
		return true
	}
	progress, details := s.Store.ProgressView()
	if progress != nil && progress.CourseID == courseID {
		if vp, ok := progress.FindVideo(videoID); ok && vp.Completed {
			return true
		}
	}
	if details != nil && details.ID == courseID {
		if video, ok := details.FindVideo(videoID); ok {
			return ReachedThreshold(watchedSeconds, video.DurationSeconds(), s.Threshold)
		}
	}
	return false
}

// ReachedThreshold duration 未知（<=0）时返回 false
func ReachedThreshold(watchedSeconds, durationSeconds, threshold float64) bool {
	if durationSeconds <= 0 {
		return false
	}
	return watchedSeconds/durationSeconds >= threshold
}

func (s *ProgressService) CalculateOverallProgress(courseID string) int {
	progress, details := s.Store.ProgressView()
	return OverallProgress(progress, details, courseID)
}

// OverallProgress 已完成视频占比，四舍五入到整数百分比
func OverallProgress(progress *model.CourseProgress, details *model.Course, courseID string) int {
	if progress == nil || progress.CourseID != courseID {
		return 0
	}
	if details == nil || details.ID != progress.CourseID {
		return 0
	}

	total := len(details.CourseVideos)
	if total == 0 {
		if progress.Completed {
			return 100
		}
		return 0
	}

	pct := int(math.Floor(100*float64(progress.CompletedVideoCount())/float64(total) + 0.5))
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

func (s *ProgressService) attachUserProgress(courseID string) {
	s.Store.AttachUserProgress(courseID, s.CalculateOverallProgress(courseID))
}

// MarkCourseAsCompleted 成功后整体替换当前进度，失败时不做乐观更新
func (s *ProgressService) MarkCourseAsCompleted(ctx context.Context, courseID string) (*model.CourseProgress, error) {
	if courseID == "" {
		s.Store.SetError(util.MsgInvalidCourseID)
		return nil, api.NewValidationError("MarkCourseAsCompleted", util.ErrCourseIDRequired.Error())
	}

	s.Store.ResetError()
	seq := s.Store.NextProgressSeq(courseID)
	progress, err := s.API.MarkCourseCompleted(ctx, courseID)
	if err != nil {
		logger.Log.Warn("Mark course completed failed", zap.String("courseId", courseID), zap.Error(err))
		s.Store.SetError(userMessage(err, util.MsgCompleteFailed))
		return nil, err
	}

	s.applyProgress(courseID, seq, progress)
	return progress, nil
}
