package model

import "time"

type UserRole string

const (
	Student    UserRole = "STUDENT"
	Instructor UserRole = "INSTRUCTOR"
	Admin      UserRole = "ADMIN"
)

// swagger:model User
type User struct {
	ID              string   `json:"_id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Role            UserRole `json:"role"`
	ProfileImageURL string   `json:"profileImageUrl,omitempty"`
	Points          int      `json:"points"`
}

// AuthTokens login 返回的令牌对
// swagger:model AuthTokens
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// Session 本地持久化的登录会话
type Session struct {
	BaseModel
	Email        string     `gorm:"size:191;index" json:"email"`
	UserID       string     `gorm:"size:64" json:"userId"`
	AccessToken  string     `gorm:"type:text" json:"-"`
	RefreshToken string     `gorm:"type:text" json:"-"`
	UserJSON     string     `gorm:"type:text" json:"-"`
	Active       bool       `gorm:"default:true;index" json:"active"`
	LoggedInAt   time.Time  `json:"loggedInAt"`
	LoggedOutAt  *time.Time `json:"loggedOutAt,omitempty"`
}

func (Session) TableName() string {
	return "sessions"
}
