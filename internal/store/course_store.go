package store

import (
	"sync"

	"learn_with_me_client/internal/model"
	"learn_with_me_client/pkg/monitoring"
)

const AllCategory = "All"

// CourseState 展示层读取的课程/进度状态
type CourseState struct {
	Courses         []model.Course        `json:"courses"`
	FilteredCourses []model.Course        `json:"filteredCourses"`
	CourseDetails   *model.Course         `json:"courseDetails"`
	Categories      []string              `json:"categories"`
	ActiveCategory  string                `json:"activeCategory"`
	CurrentProgress *model.CourseProgress `json:"currentProgress"`
	IsLoading       bool                  `json:"isLoading"`
	Error           string                `json:"error,omitempty"`
	RetryCount      int                   `json:"retryCount"`
}

// CourseStore 进程内共享的状态容器，每个测试场景可以单独创建
type CourseStore struct {
	mu    sync.RWMutex
	state CourseState

	// 每门课程的进度请求序号：dispatched 为已发出的最大序号，applied 为已生效的最大序号
	dispatched map[string]uint64
	applied    map[string]uint64
}

func NewCourseStore() *CourseStore {
	return &CourseStore{
		state: CourseState{
			Categories:     []string{AllCategory},
			ActiveCategory: AllCategory,
		},
		dispatched: make(map[string]uint64),
		applied:    make(map[string]uint64),
	}
}

// Snapshot 返回深拷贝
func (s *CourseStore) Snapshot() CourseState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Courses = cloneCourses(s.state.Courses)
	st.FilteredCourses = cloneCourses(s.state.FilteredCourses)
	st.Categories = append([]string(nil), s.state.Categories...)
	st.CourseDetails = cloneCourse(s.state.CourseDetails)
	st.CurrentProgress = s.state.CurrentProgress.Clone()
	return st
}

func (s *CourseStore) update(fn func(st *CourseState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

func (s *CourseStore) BeginLoading() {
	s.update(func(st *CourseState) {
		st.IsLoading = true
		st.Error = ""
	})
}

func (s *CourseStore) FinishLoading() {
	s.update(func(st *CourseState) { st.IsLoading = false })
}

// Fail 设置错误信息并结束加载
func (s *CourseStore) Fail(message string) {
	s.update(func(st *CourseState) {
		st.Error = message
		st.IsLoading = false
	})
}

func (s *CourseStore) SetError(message string) {
	s.update(func(st *CourseState) { st.Error = message })
}

func (s *CourseStore) ResetError() {
	s.SetError("")
}

func (s *CourseStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Error
}

func (s *CourseStore) RetryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.RetryCount
}

func (s *CourseStore) ResetRetry() {
	s.update(func(st *CourseState) { st.RetryCount = 0 })
}

// NextRetry 未达到上限时自增并返回新的次数
func (s *CourseStore) NextRetry(max int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.RetryCount >= max {
		return s.state.RetryCount, false
	}
	s.state.RetryCount++
	return s.state.RetryCount, true
}

// ReplaceCourses 成功拉取后整体替换列表并重建分类
func (s *CourseStore) ReplaceCourses(courses []model.Course) {
	if courses == nil {
		courses = []model.Course{}
	}
	s.update(func(st *CourseState) {
		st.Courses = courses
		st.FilteredCourses = courses
		st.Categories = DeriveCategories(courses)
		st.RetryCount = 0
		st.IsLoading = false
	})
}

// SetTeacherCourses 教师课程列表不重建分类
func (s *CourseStore) SetTeacherCourses(courses []model.Course) {
	if courses == nil {
		courses = []model.Course{}
	}
	s.update(func(st *CourseState) {
		st.Courses = courses
		st.FilteredCourses = courses
		st.IsLoading = false
	})
}

// DeriveCategories "All" 加上按首次出现顺序去重的课程分类
func DeriveCategories(courses []model.Course) []string {
	categories := []string{AllCategory}
	seen := map[string]bool{AllCategory: true}
	for _, c := range courses {
		if c.Category == "" || seen[c.Category] {
			continue
		}
		seen[c.Category] = true
		categories = append(categories, c.Category)
	}
	return categories
}

func (s *CourseStore) SetActiveCategory(category string) {
	s.update(func(st *CourseState) {
		st.ActiveCategory = category
		st.FilteredCourses = filterCourses(st.Courses, category)
	})
}

func (s *CourseStore) FilterCoursesByCategory(category string) {
	s.update(func(st *CourseState) {
		st.FilteredCourses = filterCourses(st.Courses, category)
	})
}

func filterCourses(courses []model.Course, category string) []model.Course {
	if category == AllCategory {
		return courses
	}
	filtered := make([]model.Course, 0, len(courses))
	for _, c := range courses {
		if c.Category == category {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func (s *CourseStore) SetCourseDetails(course *model.Course) {
	s.update(func(st *CourseState) {
		st.CourseDetails = course
		st.IsLoading = false
	})
}

func (s *CourseStore) CourseDetails() *model.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCourse(s.state.CourseDetails)
}

func (s *CourseStore) CurrentProgress() *model.CourseProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentProgress.Clone()
}

// ProgressView 同一把锁下读取进度和课程详情
func (s *CourseStore) ProgressView() (*model.CourseProgress, *model.Course) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentProgress.Clone(), cloneCourse(s.state.CourseDetails)
}

// NextProgressSeq 发出进度请求前领取序号
func (s *CourseStore) NextProgressSeq(courseID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatched[courseID]++
	return s.dispatched[courseID]
}

// ApplyProgress 整体替换 currentProgress；序号不大于已生效序号的响应被丢弃
func (s *CourseStore) ApplyProgress(courseID string, seq uint64, progress *model.CourseProgress) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.applied[courseID] {
		monitoring.StaleProgressResponses.Inc()
		return false
	}
	s.applied[courseID] = seq
	s.state.CurrentProgress = progress.Clone()
	return true
}

// AttachUserProgress 当前详情页是该课程时写入派生进度
func (s *CourseStore) AttachUserProgress(courseID string, percent int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CourseDetails == nil || s.state.CourseDetails.ID != courseID {
		return false
	}
	details := cloneCourse(s.state.CourseDetails)
	details.UserProgress = &percent
	s.state.CourseDetails = details
	return true
}

func cloneCourse(c *model.Course) *model.Course {
	if c == nil {
		return nil
	}
	cp := *c
	if c.CourseVideos != nil {
		cp.CourseVideos = append([]model.CourseVideo(nil), c.CourseVideos...)
	}
	if c.CourseDocuments != nil {
		cp.CourseDocuments = append([]model.CourseDocument(nil), c.CourseDocuments...)
	}
	if c.Teacher != nil {
		t := *c.Teacher
		cp.Teacher = &t
	}
	if c.UserProgress != nil {
		p := *c.UserProgress
		cp.UserProgress = &p
	}
	return &cp
}

func cloneCourses(courses []model.Course) []model.Course {
	if courses == nil {
		return nil
	}
	out := make([]model.Course, len(courses))
	copy(out, courses)
	return out
}
