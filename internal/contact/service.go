// Package contact sends the public contact form to the backend.
package contact

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/wolfman30/leadhunter/internal/gateway"
	"github.com/wolfman30/leadhunter/internal/notify"
	"github.com/wolfman30/leadhunter/pkg/logging"
)

var (
	ErrNameRequired    = errors.New("contact: name is required")
	ErrInvalidEmail    = errors.New("contact: invalid email address")
	ErrMessageTooShort = errors.New("contact: message must have at least 10 characters")
)

// Message is the contact form payload.
type Message struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Message string `json:"message" validate:"min=10"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalized trims every field.
func (m Message) Normalized() Message {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Phone = strings.TrimSpace(m.Phone)
	m.Message = strings.TrimSpace(m.Message)
	return m
}

// Validate returns the first failing field as one of the package errors.
func (m Message) Validate() error {
	err := validate.Struct(m)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	switch fieldErrs[0].Field() {
	case "Name":
		return ErrNameRequired
	case "Email":
		return ErrInvalidEmail
	case "Message":
		return ErrMessageTooShort
	default:
		return err
	}
}

// IsValidation reports whether err came from Validate.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNameRequired) || errors.Is(err, ErrInvalidEmail) || errors.Is(err, ErrMessageTooShort)
}

// Service posts contact messages. The endpoint is public, so no token is sent.
type Service struct {
	caller   gateway.Caller
	notifier notify.Notifier
	logger   *logging.Logger
}

// NewService creates a Service.
func NewService(caller gateway.Caller, notifier notify.Notifier, logger *logging.Logger) *Service {
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{caller: caller, notifier: notifier, logger: logger}
}

// Send validates msg and posts it. Invalid messages never reach the network.
func (s *Service) Send(ctx context.Context, msg Message) error {
	msg = msg.Normalized()
	if err := msg.Validate(); err != nil {
		return err
	}

	outcome := s.caller.Call(ctx, gateway.Request{
		Endpoint: gateway.EndpointContact,
		Method:   http.MethodPost,
		Body:     msg,
	})
	if failure, ok := outcome.(*gateway.Failure); ok {
		s.logger.Warn("contact message failed", "status", failure.Status, "error", failure.Message)
		s.notifier.Notify(ctx, notify.Error("Erro", failure.Message))
		return failure
	}

	s.logger.Info("contact message sent")
	s.notifier.Notify(ctx, notify.Success("Mensagem Enviada!", "Entraremos em contato em breve."))
	return nil
}
