package model

import "time"

// Teacher 课程所属教师（列表接口不返回 name）
// swagger:model Teacher
type Teacher struct {
	ID              string `json:"_id"`
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

// CourseVideo 课程视频，Duration 单位为分钟
// swagger:model CourseVideo
type CourseVideo struct {
	ID          string  `json:"_id,omitempty"`
	Key         string  `json:"key,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	URL         string  `json:"url,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
	Order       *int    `json:"order,omitempty"`
}

// Identity 进度记录使用的视频标识：优先 _id，其次 key
func (v CourseVideo) Identity() string {
	if v.ID != "" {
		return v.ID
	}
	return v.Key
}

// DurationSeconds 视频时长（秒）
func (v CourseVideo) DurationSeconds() float64 {
	return v.Duration * 60
}

// swagger:model CourseDocument
type CourseDocument struct {
	ID          string `json:"_id,omitempty"`
	Key         string `json:"key,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Order       *int   `json:"order,omitempty"`
}

// swagger:model Course
type Course struct {
	ID              string           `json:"_id"`
	Title           string           `json:"title"`
	Description     string           `json:"description,omitempty"`
	Price           float64          `json:"price,omitempty"`
	Category        string           `json:"category,omitempty"`
	Level           string           `json:"level,omitempty"`
	Rating          float64          `json:"rating,omitempty"`
	Students        int              `json:"students,omitempty"`
	Certified       bool             `json:"certified,omitempty"`
	CourseImageURL  string           `json:"courseImageUrl,omitempty"`
	CourseImageKey  string           `json:"courseImageKey,omitempty"`
	Teacher         *Teacher         `json:"teacher,omitempty"`
	CourseVideos    []CourseVideo    `json:"courseVideos,omitempty"`
	CourseDocuments []CourseDocument `json:"courseDocuments,omitempty"`
	CreatedAt       *time.Time       `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time       `json:"updatedAt,omitempty"`

	// 仅用于展示的派生完成百分比
	UserProgress *int `json:"userProgress,omitempty"`
}

// FindVideo 按进度标识查找视频
func (c *Course) FindVideo(videoID string) (CourseVideo, bool) {
	if c == nil {
		return CourseVideo{}, false
	}
	for _, v := range c.CourseVideos {
		if v.Identity() == videoID {
			return v, true
		}
	}
	return CourseVideo{}, false
}

// CourseInput 创建/更新课程的请求体，字段直接透传给远端
type CourseInput map[string]interface{}
