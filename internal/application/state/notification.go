package state

import (
	"context"
	"errors"
	"time"

	"github.com/alfalah/schooladmin/internal/domain/shared"
	"github.com/alfalah/schooladmin/internal/infrastructure/apiclient"
	"github.com/google/uuid"
)

// Level is the severity of a notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Notification is a transient message shown to the operator
type Notification struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notify builds a notification with a fresh id
func Notify(level Level, message string) Notification {
	return Notification{
		ID:      uuid.NewString(),
		Level:   level,
		Message: message,
		At:      time.Now(),
	}
}

// ErrorNotification turns an operation failure into a notification.
// Domain errors keep their message; request errors use the server message
// when present and the generic fallback otherwise.
func ErrorNotification(err error) Notification {
	return Notify(LevelError, Message(err))
}

// Message is the operator-facing text of err
func Message(err error) string {
	var de *shared.DomainError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &de):
		return de.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out. Please try again."
	default:
		return apiclient.UserMessage(err)
	}
}
