// Package notify delivers account notifications. AuthFlow treats welcome
// mail as fire-and-forget and password-reset mail as awaited but retryable,
// so senders report errors without ever panicking.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Sender dispatches user-facing notifications.
type Sender interface {
	SendWelcome(ctx context.Context, email string, data WelcomeData) error
	SendPasswordReset(ctx context.Context, email string, data PasswordResetData) error
}

// WelcomeData is the template context for a welcome notification.
type WelcomeData struct {
	Username     string `json:"username"`
	DashboardURL string `json:"dashboard_url"`
}

// PasswordResetData is the template context for a password-reset
// notification.
type PasswordResetData struct {
	Username  string `json:"username"`
	ResetLink string `json:"reset_link"`
}

// LogSender is the fallback when no broker is configured: deliveries are
// recorded in the log and always succeed.
type LogSender struct{}

func (LogSender) SendWelcome(_ context.Context, email string, data WelcomeData) error {
	logrus.WithFields(logrus.Fields{
		"email":    email,
		"username": data.Username,
	}).Info("welcome notification (log sender)")
	return nil
}

func (LogSender) SendPasswordReset(_ context.Context, email string, data PasswordResetData) error {
	logrus.WithFields(logrus.Fields{
		"email":    email,
		"username": data.Username,
	}).Info("password reset notification (log sender)")
	return nil
}

var _ Sender = LogSender{}
