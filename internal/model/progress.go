package model

import "time"

// VideoProgress 单个视频的观看进度
// swagger:model VideoProgress
type VideoProgress struct {
	VideoID        string  `json:"videoId"`
	WatchedSeconds float64 `json:"watchedSeconds"`
	Completed      bool    `json:"completed"`
}

// CourseProgress 一个 (用户, 课程) 对应一条记录
// swagger:model CourseProgress
type CourseProgress struct {
	ID             string          `json:"_id"`
	UserID         string          `json:"userId"`
	CourseID       string          `json:"courseId"`
	Completed      bool            `json:"completed"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
	VideosProgress []VideoProgress `json:"videosProgress"`
	CreatedAt      *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time      `json:"updatedAt,omitempty"`

	// 已报名时返回的占位记录
	AlreadyEnrolled bool `json:"alreadyEnrolled,omitempty"`
}

const ExistingEnrollmentID = "existing"

// AlreadyEnrolledRecord 已报名占位记录，不代表服务端真实数据
func AlreadyEnrolledRecord(courseID, userID string) *CourseProgress {
	return &CourseProgress{
		ID:              ExistingEnrollmentID,
		UserID:          userID,
		CourseID:        courseID,
		Completed:       false,
		AlreadyEnrolled: true,
	}
}

func (p *CourseProgress) FindVideo(videoID string) (VideoProgress, bool) {
	if p == nil {
		return VideoProgress{}, false
	}
	for _, vp := range p.VideosProgress {
		if vp.VideoID == videoID {
			return vp, true
		}
	}
	return VideoProgress{}, false
}

// CompletedVideoCount 已完成的视频数
func (p *CourseProgress) CompletedVideoCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, vp := range p.VideosProgress {
		if vp.Completed {
			n++
		}
	}
	return n
}

// Clone 深拷贝，避免调用方修改 store 内部状态
func (p *CourseProgress) Clone() *CourseProgress {
	if p == nil {
		return nil
	}
	cp := *p
	if p.VideosProgress != nil {
		cp.VideosProgress = make([]VideoProgress, len(p.VideosProgress))
		copy(cp.VideosProgress, p.VideosProgress)
	}
	return &cp
}
