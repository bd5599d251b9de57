package service

import (
	"context"
	"encoding/json"
	"learn_with_me_client/internal/api"
	"learn_with_me_client/internal/model"
	"learn_with_me_client/internal/store"
	"learn_with_me_client/internal/util"
	"learn_with_me_client/pkg/logger"
	"strings"

	"go.uber.org/zap"
)

// SessionPersister 会话持久化，*repository.SessionRepository 实现
type SessionPersister interface {
	SaveActive(session *model.Session) error
	FindActive() (*model.Session, error)
	DeactivateAll() error
}

type AuthService struct {
	API     AuthAPI
	Session *store.SessionStore
	Repo    SessionPersister
}

func NewAuthService(authAPI AuthAPI, session *store.SessionStore, repo SessionPersister) *AuthService {
	return &AuthService{
		API:     authAPI,
		Session: session,
		Repo:    repo,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*model.AuthTokens, error) {
	email = strings.TrimSpace(email)
	if errs := util.FieldErrors(map[string]string{
		"email":    util.ValidateEmail(email),
		"password": util.ValidatePassword(password),
	}); len(errs) > 0 {
		return nil, errs
	}

	tokens, err := s.API.Login(ctx, email, password)
	if err != nil {
		logger.Log.Warn("Login failed", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	s.Session.Set(email, *tokens, tokens.User)
	s.persist(email, tokens)
	logger.Log.Info("User logged in", zap.String("email", email))
	return tokens, nil
}

func (s *AuthService) persist(email string, tokens *model.AuthTokens) {
	if s.Repo == nil {
		return
	}

	session := &model.Session{
		Email:        email,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}
	if userID, err := util.UserIDFromToken(tokens.AccessToken); err == nil {
		session.UserID = userID
	} else if tokens.User != nil {
		session.UserID = tokens.User.ID
	}
	if tokens.User != nil {
		if raw, err := json.Marshal(tokens.User); err == nil {
			session.UserJSON = string(raw)
		}
	}

	if err := s.Repo.SaveActive(session); err != nil {
		logger.Log.Warn("Persist session failed", zap.Error(err))
	}
}

// Register 成功后不自动登录
func (s *AuthService) Register(ctx context.Context, input api.RegisterInput, image *api.Upload) (*model.User, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if errs := util.FieldErrors(map[string]string{
		"name":     util.ValidateName(input.Name),
		"email":    util.ValidateEmail(input.Email),
		"password": util.ValidatePassword(input.Password),
	}); len(errs) > 0 {
		return nil, errs
	}
	if input.Role == "" {
		input.Role = model.Student
	}

	user, err := s.API.Register(ctx, input, image)
	if err != nil {
		logger.Log.Warn("Register failed", zap.String("email", input.Email), zap.Error(err))
		return nil, err
	}
	logger.Log.Info("User registered", zap.String("email", input.Email))
	return user, nil
}

func (s *AuthService) Logout() error {
	s.Session.Clear()
	if s.Repo == nil {
		return nil
	}
	return s.Repo.DeactivateAll()
}

// RestoreSession 启动时恢复上次的登录状态，返回是否恢复成功
func (s *AuthService) RestoreSession() bool {
	if s.Repo == nil {
		return false
	}
	session, err := s.Repo.FindActive()
	if err != nil {
		logger.Log.Warn("Load persisted session failed", zap.Error(err))
		return false
	}
	if session == nil || session.AccessToken == "" {
		return false
	}

	var user *model.User
	if session.UserJSON != "" {
		var u model.User
		if err := json.Unmarshal([]byte(session.UserJSON), &u); err == nil {
			user = &u
		}
	}
	s.Session.Set(session.Email, model.AuthTokens{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		User:         user,
	}, user)
	logger.Log.Info("Session restored", zap.String("email", session.Email))
	return true
}

// CurrentUserID 优先取 access token 中的 userId，其次取登录返回的用户信息
func (s *AuthService) CurrentUserID() (string, error) {
	token := s.Session.AccessToken()
	if token == "" {
		return "", util.ErrNotAuthenticated
	}
	userID, err := util.UserIDFromToken(token)
	if err == nil {
		return userID, nil
	}
	if user := s.Session.User(); user != nil && user.ID != "" {
		return user.ID, nil
	}
	return "", err
}

func (s *AuthService) CurrentUser() *model.User {
	return s.Session.User()
}
