package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/leadhunter/internal/gateway"
	"github.com/wolfman30/leadhunter/internal/notify"
	"github.com/wolfman30/leadhunter/internal/session"
	"github.com/wolfman30/leadhunter/pkg/logging"
)

func newServer(t *testing.T, handler http.HandlerFunc) (*Service, *notify.Recorder) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tokens := session.StaticToken("tok")
	client, err := gateway.New(gateway.Config{BaseURL: server.URL, Tokens: tokens, HTTPClient: server.Client(), Logger: logging.Discard()})
	require.NoError(t, err)

	rec := &notify.Recorder{}
	return NewService(client, tokens, rec, logging.Discard()), rec
}

func TestLoadNormalizesNullFields(t *testing.T) {
	svc, rec := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/profile", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"company_name": null, "company_services": "Consultoria"}`))
	})

	form, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Data{CompanyName: "", CompanyServices: "Consultoria"}, form)
	assert.Equal(t, form, svc.Form())
	assert.Empty(t, rec.Notices())
}

func TestLoadMissingFieldsAndEmptyBody(t *testing.T) {
	var body atomic.Value
	body.Store(`{}`)
	svc, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body.Load().(string)))
	})

	svc.SetForm(Data{CompanyName: "stale", CompanyServices: "stale"})
	form, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Data{}, form)

	body.Store(``)
	svc.SetForm(Data{CompanyName: "stale"})
	form, err = svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Data{}, form)
}

func TestLoadFailureKeepsForm(t *testing.T) {
	svc, rec := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>oops</html>"))
	})
	svc.SetForm(Data{CompanyName: "ACME", CompanyServices: "Solar"})

	form, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, Data{CompanyName: "ACME", CompanyServices: "Solar"}, form)

	notices := rec.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, notify.VariantDestructive, notices[0].Variant)
	assert.Contains(t, notices[0].Description, "500")
}

func TestLoadWithoutTokenDoesNotDispatch(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	defer server.Close()
	client, err := gateway.New(gateway.Config{BaseURL: server.URL, HTTPClient: server.Client(), Logger: logging.Discard()})
	require.NoError(t, err)

	rec := &notify.Recorder{}
	_, err = NewService(client, nil, rec, logging.Discard()).Load(context.Background())
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	assert.Zero(t, hits.Load())
	assert.Len(t, rec.Notices(), 1)
}

func TestSaveSendsFormAndNotifiesOnce(t *testing.T) {
	var received Data
	svc, rec := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"company_name":"ACME","company_services":"Energia solar"}`))
	})

	err := svc.Save(context.Background(), Data{CompanyName: "ACME", CompanyServices: "Energia solar"})
	require.NoError(t, err)
	assert.Equal(t, Data{CompanyName: "ACME", CompanyServices: "Energia solar"}, received)
	assert.Equal(t, received, svc.Form())

	notices := rec.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, "Perfil atualizado com sucesso!", notices[0].Description)
}

func TestSaveFailureNotifiesOnceAndKeepsEdits(t *testing.T) {
	svc, rec := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"msg":"company_name too long"}]}`))
	})

	edited := Data{CompanyName: "ACME", CompanyServices: "x"}
	err := svc.Save(context.Background(), edited)
	var failure *gateway.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "company_name too long", failure.Message)
	assert.Equal(t, edited, svc.Form())
	assert.Len(t, rec.Notices(), 1)
}

func TestCloseDiscardsLoad(t *testing.T) {
	svc, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"company_name":"late"}`))
	})
	svc.Close()
	_, err := svc.Load(context.Background())
	assert.ErrorIs(t, err, ErrDiscarded)
	assert.Equal(t, Data{}, svc.Form())
}
