package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/leadhunter/internal/demo"
	"github.com/wolfman30/leadhunter/pkg/logging"
	"gopkg.in/yaml.v3"
)

const testSecret = "cli-test-secret"

type cliEnv struct {
	server    *demo.Server
	exportDir string
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	srv, err := demo.NewServer(demo.Config{Secret: testSecret, Logger: logging.Discard()})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	exportDir := filepath.Join(dir, "exports")
	t.Setenv("LEADHUNTER_API_URL", ts.URL)
	t.Setenv("SESSION_STORE", "file")
	t.Setenv("SESSION_FILE", filepath.Join(dir, "session.json"))
	t.Setenv("EXPORT_DIR", exportDir)
	t.Setenv("EXPORT_S3_BUCKET", "")
	t.Setenv("PUSHGATEWAY_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DEMO_JWT_SECRET", testSecret)
	return &cliEnv{server: srv, exportDir: exportDir}
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := execute(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func login(t *testing.T) {
	t.Helper()
	out, _, err := run(t, "demo", "token", "--subject", "ana", "--login")
	require.NoError(t, err)
	require.NotEmpty(t, strings.TrimSpace(out))
}

func TestStatusWithoutSession(t *testing.T) {
	setupCLI(t)
	out, _, err := run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Authenticated: no")
}

func TestProtectedCommandsRequireLogin(t *testing.T) {
	setupCLI(t)
	for _, args := range [][]string{
		{"search", "--niche", "Energia solar", "--region", "Brasília"},
		{"history"},
		{"profile", "show"},
	} {
		_, _, err := run(t, args...)
		assert.ErrorIs(t, err, errNotLoggedIn, strings.Join(args, " "))
	}
}

func TestRejectsUnknownOutputFormat(t *testing.T) {
	setupCLI(t)
	_, _, err := run(t, "-o", "xml", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestLoginStatusLogout(t *testing.T) {
	setupCLI(t)
	tok, err := demo.IssueToken(testSecret, "ana", time.Hour)
	require.NoError(t, err)

	out, _, err := run(t, "login", "--token", tok)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in.")

	out, _, err = run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Authenticated: yes")

	out, _, err = run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")

	out, _, err = run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Authenticated: no")
}

func TestSearchAndExport(t *testing.T) {
	env := setupCLI(t)
	login(t)

	out, stderr, err := run(t, "search", "--niche", "Energia solar", "--region", "Brasília", "--export")
	require.NoError(t, err, stderr)
	assert.Contains(t, out, "Energia Tech Brasília")
	assert.Contains(t, out, "@solartech_bsb")
	assert.Contains(t, out, "Exported 4 leads to")
	assert.Contains(t, stderr, "Leads encontrados!")

	entries, err := os.ReadDir(env.exportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "leads-"))

	data, err := os.ReadFile(filepath.Join(env.exportDir, entries[0].Name()))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `"Nome da Empresa","Instagram/Site","WhatsApp"`+"\r\n"))
}

func TestSearchValidationNeverReachesBackend(t *testing.T) {
	setupCLI(t)
	login(t)

	_, _, err := run(t, "search", "--niche", " ", "--region", "Brasília")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errReported)

	out, _, err := run(t, "-o", "json", "history")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestHistoryJSONAndExports(t *testing.T) {
	env := setupCLI(t)
	login(t)

	_, _, err := run(t, "search", "--niche", "Energia solar", "--region", "Brasília")
	require.NoError(t, err)

	out, _, err := run(t, "-o", "json", "history", "--csv", "--pdf")
	require.NoError(t, err)

	jsonPart := out[:strings.Index(out, "Exported")]
	var records []leadRecord
	require.NoError(t, json.Unmarshal([]byte(jsonPart), &records))
	require.Len(t, records, 4)
	assert.Equal(t, "https://wa.me/61999991234", records[0].WhatsAppURL)

	assert.FileExists(t, filepath.Join(env.exportDir, "leads_historico.csv"))
	pdf, err := os.ReadFile(filepath.Join(env.exportDir, "leads_historico.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestEmptyHistoryExportIsInformational(t *testing.T) {
	env := setupCLI(t)
	login(t)

	out, stderr, err := run(t, "history", "--csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Nenhum lead encontrado.")
	assert.Contains(t, stderr, "Nenhum lead para exportar")
	assert.NoDirExists(t, env.exportDir)
}

func TestProfileSetAndShow(t *testing.T) {
	setupCLI(t)
	login(t)

	_, stderr, err := run(t, "profile", "set", "--name", "Acme", "--services", "Sites e tráfego pago")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Perfil atualizado com sucesso!")

	_, _, err = run(t, "profile", "set", "--services", "Consultoria")
	require.NoError(t, err)

	out, _, err := run(t, "-o", "yaml", "profile", "show")
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]string{"company_name": "Acme", "company_services": "Consultoria"}, got)
}

func TestContact(t *testing.T) {
	env := setupCLI(t)

	_, stderr, err := run(t, "contact", "--name", "Ana", "--email", "ana@example.com", "--message", "Quero saber mais sobre o produto.")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Mensagem Enviada!")
	require.Len(t, env.server.Messages(), 1)
	assert.Equal(t, "Ana", env.server.Messages()[0].Name)

	_, _, err = run(t, "contact", "--name", "Ana", "--email", "not-an-email", "--message", "Quero saber mais sobre o produto.")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errReported)
	assert.Len(t, env.server.Messages(), 1)
}
