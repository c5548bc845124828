package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fileharbor/internal/auth"
	"fileharbor/internal/entity"
	"fileharbor/internal/model"
	"fileharbor/internal/notify"
	"fileharbor/internal/rbac"
)

// storedRefreshExpiry 是服务端记录的刷新令牌有效期，固定 7 天，
// 与签名 TTL 相互独立。
const storedRefreshExpiry = 7 * 24 * time.Hour

const invalidCredentialsMessage = "username or email is incorrect"

// genericResetMessage is returned for every password reset request so the
// response never reveals whether the email is registered.
const genericResetMessage = "If an account with that email exists, a password reset link has been sent"

// AuthService 负责登录、注册、令牌轮换与密码重置。
type AuthService struct {
	repo        model.Repository
	tokens      *auth.Manager
	sender      notify.Sender
	frontendURL string
}

// NewAuthService creates the authentication service.
func NewAuthService(repo model.Repository, tokens *auth.Manager, sender notify.Sender, frontendURL string) *AuthService {
	if sender == nil {
		sender = notify.LogSender{}
	}
	return &AuthService{
		repo:        repo,
		tokens:      tokens,
		sender:      sender,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// Login authenticates by email or username. Lookup and password failures
// collapse into the same error so callers cannot probe for accounts.
func (s *AuthService) Login(ctx context.Context, req *entity.AuthLoginRequest) (*entity.AuthResponse, error) {
	if req == nil {
		return nil, errors.New("login request is nil")
	}

	user, err := s.repo.GetUserByIdentifier(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", auth.ErrInvalidCredentials, invalidCredentialsMessage)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := auth.VerifyPasswordOrFail(user.PasswordHash, req.Password, invalidCredentialsMessage); err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: user is disabled", ErrForbidden)
	}

	resp, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateUser(ctx, user.ID, entity.UserUpdates{LastLoginAt: &now}); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to update last login time")
	}
	return resp, nil
}

// Signup registers a new account with the default role and signs it in.
// Welcome mail is fire-and-forget so delivery problems never block signup.
func (s *AuthService) Signup(ctx context.Context, req *entity.AuthSignupRequest) (*entity.AuthResponse, error) {
	if req == nil {
		return nil, errors.New("signup request is nil")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	if _, err := s.repo.FindUserByEmailOrUsername(ctx, email, username); err == nil {
		return nil, fmt.Errorf("%w: email or username already taken", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.DbUser{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Role:         string(rbac.RoleUser),
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email or username already taken", ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	resp, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	go func(email, username string) {
		sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		data := notify.WelcomeData{
			Username:     username,
			DashboardURL: s.frontendURL + "/dashboard",
		}
		if err := s.sender.SendWelcome(sendCtx, email, data); err != nil {
			logrus.WithError(err).WithField("email", email).Warn("failed to send welcome notification")
		}
	}(user.Email, user.Username)

	return resp, nil
}

// Refresh exchanges a valid refresh token for a new pair and rotates the
// stored value, invalidating the presented token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*entity.AuthResponse, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return nil, auth.ErrInvalidRefreshToken
	}

	if _, err := s.tokens.VerifyRefresh(refreshToken, user.RefreshToken, user.RefreshTokenExpiresAt, time.Now().UTC()); err != nil {
		return nil, err
	}

	return s.issueSession(ctx, user)
}

// Logout clears the stored refresh token. The access token stays valid
// until it expires on its own.
func (s *AuthService) Logout(ctx context.Context, userID uint) (*entity.MessageResponse, error) {
	if err := s.repo.ClearRefreshToken(ctx, userID); err != nil {
		return nil, fmt.Errorf("clear refresh token: %w", err)
	}
	return &entity.MessageResponse{Message: "Logged out successfully"}, nil
}

// RequestPasswordReset issues a reset token and mails the reset link. The
// response is identical whether or not the email maps to an account.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*entity.MessageResponse, error) {
	generic := &entity.MessageResponse{Message: genericResetMessage}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return generic, nil
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	token, err := s.tokens.IssueResetToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	data := notify.PasswordResetData{
		Username:  user.Username,
		ResetLink: fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token),
	}
	if err := s.sender.SendPasswordReset(ctx, user.Email, data); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to send password reset notification")
		return nil, fmt.Errorf("%w, please try again later", ErrNotificationDelivery)
	}
	return generic, nil
}

// ResetPassword consumes a reset token, replaces the password and revokes
// any stored refresh token so existing sessions cannot be refreshed.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (*entity.MessageResponse, error) {
	claims, err := s.tokens.VerifyResetToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateUser(ctx, user.ID, entity.UserUpdates{PasswordHash: &hash}); err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}
	if err := s.repo.ClearRefreshToken(ctx, user.ID); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to clear refresh token")
	}
	return &entity.MessageResponse{Message: "Password has been reset"}, nil
}

// issueSession signs a token pair and rotates the stored refresh token in a
// single guarded update. A rotation conflict surfaces unchanged so the
// client retries the whole login or refresh.
func (s *AuthService) issueSession(ctx context.Context, user *entity.DbUser) (*entity.AuthResponse, error) {
	pair, accessExpiry, err := s.tokens.IssuePair(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().UTC().Add(storedRefreshExpiry)
	if err := s.repo.RotateRefreshToken(ctx, user.ID, user.RefreshToken, pair.RefreshToken, expiresAt); err != nil {
		if errors.Is(err, entity.ErrRefreshRotationConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &entity.AuthResponse{
		TokenPair: pair,
		ExpiresAt: accessExpiry,
		User:      entity.MakeUserSummary(user),
	}, nil
}
