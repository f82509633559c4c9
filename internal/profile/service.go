// Package profile loads and saves the company profile of the signed-in user.
package profile

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/wolfman30/leadhunter/internal/gateway"
	"github.com/wolfman30/leadhunter/internal/notify"
	"github.com/wolfman30/leadhunter/internal/session"
	"github.com/wolfman30/leadhunter/pkg/logging"
)

// ErrDiscarded is returned when a response arrives after Close.
var ErrDiscarded = errors.New("profile: response discarded")

// Data holds the editable profile fields. Both are always defined; a null or
// missing value from the backend becomes "".
type Data struct {
	CompanyName     string `json:"company_name"`
	CompanyServices string `json:"company_services"`
}

type wireData struct {
	CompanyName     *string `json:"company_name"`
	CompanyServices *string `json:"company_services"`
}

func (w wireData) normalize() Data {
	var d Data
	if w.CompanyName != nil {
		d.CompanyName = *w.CompanyName
	}
	if w.CompanyServices != nil {
		d.CompanyServices = *w.CompanyServices
	}
	return d
}

// Service owns the profile form. The form is the only copy of the profile
// held client-side; it is replaced on Load and sent as-is on Save.
type Service struct {
	caller   gateway.Caller
	tokens   session.TokenSource
	notifier notify.Notifier
	logger   *logging.Logger

	mu         sync.Mutex
	form       Data
	generation uint64
	closed     bool
}

// NewService creates a Service with an empty form.
func NewService(caller gateway.Caller, tokens session.TokenSource, notifier notify.Notifier, logger *logging.Logger) *Service {
	if tokens == nil {
		tokens = session.StaticToken("")
	}
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{caller: caller, tokens: tokens, notifier: notifier, logger: logger}
}

// Form returns the current form values.
func (s *Service) Form() Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// SetForm replaces the form values, as a user edit would.
func (s *Service) SetForm(d Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = d
}

// Load fetches the profile into the form. On failure the form keeps its
// previous values.
func (s *Service) Load(ctx context.Context) (Data, error) {
	if _, ok := s.tokens.Token(); !ok {
		s.notifier.Notify(ctx, notify.Error("Erro", "Falha ao carregar perfil."))
		return s.Form(), session.ErrNotAuthenticated
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Data{}, ErrDiscarded
	}
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	outcome := s.caller.Call(ctx, gateway.Request{
		Endpoint:     gateway.EndpointProfile,
		Method:       http.MethodGet,
		AuthRequired: true,
	})
	wire, err := gateway.Decode[wireData](outcome)

	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		return Data{}, ErrDiscarded
	}
	if err == nil {
		s.form = wire.normalize()
	}
	form := s.form
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("profile load failed", "error", err)
		s.notifier.Notify(ctx, notify.Error("Erro", err.Error()))
		return form, err
	}
	return form, nil
}

// Save sends form to the backend and makes it the current form. Exactly one
// notice is raised, for success or failure.
func (s *Service) Save(ctx context.Context, form Data) error {
	s.SetForm(form)

	outcome := s.caller.Call(ctx, gateway.Request{
		Endpoint:     gateway.EndpointProfile,
		Method:       http.MethodPut,
		Body:         form,
		AuthRequired: true,
	})

	if failure, ok := outcome.(*gateway.Failure); ok {
		s.logger.Warn("profile save failed", "error", failure.Message, "status", failure.Status)
		s.notifier.Notify(ctx, notify.Error("Erro", failure.Message))
		return failure
	}
	s.logger.Info("profile saved")
	s.notifier.Notify(ctx, notify.Success("Sucesso", "Perfil atualizado com sucesso!"))
	return nil
}

// Close makes any pending Load discard its response.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.generation++
}
