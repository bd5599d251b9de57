package repository

import (
	"errors"
	"learn_with_me_client/internal/model"
	"time"

	"gorm.io/gorm"
)

// SessionRepository 登录会话的本地持久化，同一时间只有一条 active 记录
type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

// SaveActive 先失效旧会话再写入新会话
func (r *SessionRepository) SaveActive(session *model.Session) error {
	now := time.Now()
	if session.LoggedInAt.IsZero() {
		session.LoggedInAt = now
	}
	session.Active = true

	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Session{}).
			Where("active = ?", true).
			Updates(map[string]interface{}{"active": false, "logged_out_at": now}).Error; err != nil {
			return err
		}
		return tx.Create(session).Error
	})
}

// FindActive 没有登录会话时返回 nil, nil
func (r *SessionRepository) FindActive() (*model.Session, error) {
	var session model.Session
	err := r.DB.Where("active = ?", true).Order("id desc").First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) DeactivateAll() error {
	now := time.Now()
	return r.DB.Model(&model.Session{}).
		Where("active = ?", true).
		Updates(map[string]interface{}{"active": false, "logged_out_at": now}).Error
}

