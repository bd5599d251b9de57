package service

import (
	"context"
	"sync"
	"time"

	"learn_with_me_client/internal/api"
	"learn_with_me_client/internal/model"
)

// manualScheduler 不真正等待，延迟回调由测试逐个触发
type manualScheduler struct {
	mu      sync.Mutex
	sleeps  []time.Duration
	pending []scheduledCall
}

type scheduledCall struct {
	delay time.Duration
	fn    func()
}

func (s *manualScheduler) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.sleeps = append(s.sleeps, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, scheduledCall{delay: d, fn: f})
}

func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// RunNext 触发最早的回调，返回它的延迟
func (s *manualScheduler) RunNext() (time.Duration, bool) {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return 0, false
	}
	next := s.pending[0]
	s.pending = s.pending[1:]
	s.mu.Unlock()

	next.fn()
	return next.delay, true
}

type fakeCourseAPI struct {
	mu      sync.Mutex
	courses []model.Course
	details map[string]*model.Course
	errs    []error
	calls   int

	createErr error
	created   []model.CourseInput
	updated   []string
}

func (f *fakeCourseAPI) ListCourses(ctx context.Context) ([]model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return append([]model.Course(nil), f.courses...), nil
}

func (f *fakeCourseAPI) GetCourse(ctx context.Context, courseID string) (*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.details[courseID]
	if !ok {
		return nil, &api.Error{Kind: api.KindNotFound, Op: "GetCourseDetails", Message: "course not found"}
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCourseAPI) ListTeacherCourses(ctx context.Context, teacherID string) ([]model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Course
	for _, c := range f.courses {
		if c.Teacher != nil && c.Teacher.ID == teacherID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCourseAPI) CreateCourse(ctx context.Context, input model.CourseInput) (*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, input)
	title, _ := input["title"].(string)
	return &model.Course{ID: "new", Title: title}, nil
}

func (f *fakeCourseAPI) UpdateCourse(ctx context.Context, courseID string, input model.CourseInput) (*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, courseID)
	return &model.Course{ID: courseID}, nil
}

// fakeProgressAPI 内存中的进度服务端，每个课程最多一条记录
type fakeProgressAPI struct {
	mu      sync.Mutex
	userID  string
	records map[string]*model.CourseProgress

	createCalls int
	updates     []api.VideoProgressInput

	isEnrolledErr error
	createErr     error
	getErr        error
	updateErr     error
	completeErr   error

	// createHook 在 CreateEnrollment 加锁前调用，用于制造并发
	createHook func()
}

func newFakeProgressAPI(userID string) *fakeProgressAPI {
	return &fakeProgressAPI{userID: userID, records: make(map[string]*model.CourseProgress)}
}

func (f *fakeProgressAPI) IsEnrolled(ctx context.Context, courseID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.isEnrolledErr != nil {
		return false, f.isEnrolledErr
	}
	return f.records[courseID] != nil, nil
}

func (f *fakeProgressAPI) CreateEnrollment(ctx context.Context, courseID, userID string) (*model.CourseProgress, error) {
	if f.createHook != nil {
		f.createHook()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.records[courseID] != nil {
		return nil, &api.Error{Kind: api.KindConflict, Op: "EnrollInCourse", Message: "already enrolled", FromServer: true}
	}
	rec := &model.CourseProgress{ID: "p-" + courseID, UserID: userID, CourseID: courseID}
	f.records[courseID] = rec
	return rec.Clone(), nil
}

func (f *fakeProgressAPI) GetCourseProgress(ctx context.Context, courseID string) (*model.CourseProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec := f.records[courseID]
	if rec == nil {
		return nil, &api.Error{Kind: api.KindNotFound, Op: "GetUserCourseProgress", Message: "user not enrolled"}
	}
	return rec.Clone(), nil
}

func (f *fakeProgressAPI) UpdateVideoProgress(ctx context.Context, input api.VideoProgressInput) (*model.VideoProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, input)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	rec := f.records[input.CourseID]
	if rec == nil {
		return nil, &api.Error{Kind: api.KindNotFound, Op: "UpdateVideoProgress", Message: "user not enrolled"}
	}
	vp := model.VideoProgress{VideoID: input.VideoID, WatchedSeconds: input.WatchedSeconds, Completed: input.Completed}
	for i := range rec.VideosProgress {
		if rec.VideosProgress[i].VideoID == input.VideoID {
			rec.VideosProgress[i].WatchedSeconds = input.WatchedSeconds
			rec.VideosProgress[i].Completed = rec.VideosProgress[i].Completed || input.Completed
			out := rec.VideosProgress[i]
			return &out, nil
		}
	}
	rec.VideosProgress = append(rec.VideosProgress, vp)
	return &vp, nil
}

func (f *fakeProgressAPI) MarkCourseCompleted(ctx context.Context, courseID string) (*model.CourseProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	rec := f.records[courseID]
	if rec == nil {
		return nil, &api.Error{Kind: api.KindNotFound, Op: "MarkCourseCompleted", Message: "user not enrolled"}
	}
	rec.Completed = true
	now := time.Now()
	rec.CompletedAt = &now
	return rec.Clone(), nil
}

func (f *fakeProgressAPI) lastUpdate() api.VideoProgressInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates[len(f.updates)-1]
}

type staticUser struct {
	id  string
	err error
}

func (u staticUser) CurrentUserID() (string, error) {
	return u.id, u.err
}

func transportErr() error {
	return &api.Error{Kind: api.KindTransport, Op: "GetAllCourses"}
}

func rejectedErr() error {
	return &api.Error{Kind: api.KindRequestRejected, Op: "GetAllCourses", Status: 400}
}
