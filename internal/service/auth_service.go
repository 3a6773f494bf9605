package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-pharmacy-pos/internal/model"
	"go-pharmacy-pos/internal/repository"
	"go-pharmacy-pos/internal/ws"
	"go-pharmacy-pos/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionTimeout     = errors.New("session expired due to inactivity")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

// inactivityWindow bounds how long a session survives without a heartbeat.
const inactivityWindow = 5 * time.Minute

// ClientInfo carries the request metadata the activity log records.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type AuthService interface {
	Login(email, password string, client ClientInfo) (*LoginResponse, error)
	Logout(userID uuid.UUID, client ClientInfo) error
	ResetPassword(email, oldPassword, newPassword string) error
	ValidateToken(tokenString string) (*TokenValidationResponse, error)
	Heartbeat(userID uuid.UUID) error
	RecentActivity(limit int) ([]model.UserActivityLog, error)
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type authService struct {
	userRepo     repository.UserRepository
	activityRepo repository.ActivityRepository
	wsHub        *ws.Hub
}

func NewAuthService(userRepo repository.UserRepository, activityRepo repository.ActivityRepository, hub *ws.Hub) AuthService {
	return &authService{
		userRepo:     userRepo,
		activityRepo: activityRepo,
		wsHub:        hub,
	}
}

func (s *authService) Login(email, password string, client ClientInfo) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	roleCode := ""
	if user.Role != nil {
		roleCode = user.Role.Code
	}

	// One live session per user: a fresh token version invalidates any token
	// issued earlier.
	now := time.Now()
	user.TokenVersion = uuid.New().String()
	user.LastSeenAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, errors.New("failed to update session")
	}

	token, err := jwt.GenerateToken(user.ID, user.Email, user.DisplayName(), roleCode, user.BranchID, user.GetPrivilegeCodes(), user.TokenVersion)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	s.recordActivity(user.ID, model.ActivityLogin, client)

	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

func (s *authService) Logout(userID uuid.UUID, client ClientInfo) error {
	// Bumping the version kills the outstanding token immediately.
	if err := s.userRepo.UpdateTokenVersion(userID, uuid.New().String()); err != nil {
		return err
	}
	s.recordActivity(userID, model.ActivityLogout, client)

	if s.wsHub != nil {
		s.wsHub.Publish(ws.EventUserStatus, "", map[string]interface{}{
			"user_id": userID.String(),
			"status":  "offline",
		})
	}
	return nil
}

func (s *authService) recordActivity(userID uuid.UUID, action model.ActivityAction, client ClientInfo) {
	entry := &model.UserActivityLog{
		UserID:    userID,
		Action:    action,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	}
	if err := s.activityRepo.Create(entry); err != nil {
		// The audit trail is best-effort; a failed write never blocks auth.
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"action":  action,
		}).Warn("activity log write failed")
	}
}

func (s *authService) ResetPassword(email, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return ErrUserNotFound
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	return s.userRepo.Update(user)
}

func (s *authService) ValidateToken(tokenString string) (*TokenValidationResponse, error) {
	claims, err := jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	if user.LastSeenAt == nil || time.Since(*user.LastSeenAt) > inactivityWindow {
		return nil, ErrSessionTimeout
	}

	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

func (s *authService) Heartbeat(userID uuid.UUID) error {
	if err := s.userRepo.UpdateLastSeen(userID); err != nil {
		return err
	}
	if s.wsHub != nil {
		s.wsHub.Publish(ws.EventUserStatus, "", map[string]interface{}{
			"user_id":      userID.String(),
			"status":       "online",
			"last_seen_at": time.Now(),
		})
	}
	return nil
}

func (s *authService) RecentActivity(limit int) ([]model.UserActivityLog, error) {
	return s.activityRepo.FindRecent(limit)
}
