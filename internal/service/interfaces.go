package service

import (
	"context"
	"time"

	"learn_with_me_client/internal/api"
	"learn_with_me_client/internal/model"
)

// CourseAPI 课程相关的远端调用，*api.Client 实现
type CourseAPI interface {
	ListCourses(ctx context.Context) ([]model.Course, error)
	GetCourse(ctx context.Context, courseID string) (*model.Course, error)
	ListTeacherCourses(ctx context.Context, teacherID string) ([]model.Course, error)
	CreateCourse(ctx context.Context, input model.CourseInput) (*model.Course, error)
	UpdateCourse(ctx context.Context, courseID string, input model.CourseInput) (*model.Course, error)
}

type ProgressAPI interface {
	IsEnrolled(ctx context.Context, courseID string) (bool, error)
	CreateEnrollment(ctx context.Context, courseID, userID string) (*model.CourseProgress, error)
	GetCourseProgress(ctx context.Context, courseID string) (*model.CourseProgress, error)
	UpdateVideoProgress(ctx context.Context, input api.VideoProgressInput) (*model.VideoProgress, error)
	MarkCourseCompleted(ctx context.Context, courseID string) (*model.CourseProgress, error)
}

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*model.AuthTokens, error)
	Register(ctx context.Context, input api.RegisterInput, image *api.Upload) (*model.User, error)
}

// UserIDSource 当前登录用户
type UserIDSource interface {
	CurrentUserID() (string, error)
}

// Scheduler 延迟与定时回调，测试中替换为可控实现
type Scheduler interface {
	Sleep(ctx context.Context, d time.Duration) error
	AfterFunc(d time.Duration, f func())
}

type timerScheduler struct{}

func NewTimerScheduler() Scheduler {
	return timerScheduler{}
}

func (timerScheduler) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (timerScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
