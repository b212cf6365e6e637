// Package assistant relays questions to the school's chat assistant.
package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/alfalah/schooladmin/internal/application/state"
	"github.com/alfalah/schooladmin/internal/domain/shared"
	"go.uber.org/zap"
)

// CodeEmptyMessage rejects a blank question before any request
const CodeEmptyMessage = "EMPTY_MESSAGE"

// ErrEmptyMessage is returned for a blank question
var ErrEmptyMessage = shared.NewValidationError(CodeEmptyMessage, "Please type a message")

// FallbackReply is shown in place of a reply when the assistant fails
const FallbackReply = "I'm experiencing some technical difficulties. Please try again shortly."

// ChatAPI sends one message to the assistant
type ChatAPI interface {
	Chat(ctx context.Context, message string) (string, error)
}

// Exchange is one question and its answer
type Exchange struct {
	Message string    `json:"message"`
	Reply   string    `json:"reply"`
	At      time.Time `json:"at"`
}

// Service is the assistant application service
type Service struct {
	api    ChatAPI
	store  *state.Store
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates an assistant service
func NewService(api ChatAPI, store *state.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = state.NewStore(logger)
	}
	return &Service{api: api, store: store, now: time.Now, logger: logger.Named("assistant")}
}

// Ask sends message and returns the exchange. A failed request raises an
// error notification and returns the exchange with FallbackReply alongside
// the error.
func (s *Service) Ask(ctx context.Context, message string) (Exchange, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Exchange{}, ErrEmptyMessage
	}

	ex := Exchange{Message: message, At: s.now()}
	reply, err := s.api.Chat(ctx, message)
	if err != nil {
		if ctx.Err() != nil {
			return Exchange{}, ctx.Err()
		}
		s.logger.Error("chat request failed", zap.Error(err))
		s.store.NotifyError(err)
		ex.Reply = FallbackReply
		return ex, err
	}
	ex.Reply = reply
	return ex, nil
}
