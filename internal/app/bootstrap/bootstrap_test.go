package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"treasury_dashboard/internal/app/store"
	"treasury_dashboard/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func loadConfig(t *testing.T, apiURL, authFile string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	doc := "apiBaseUrl: " + apiURL + "\nquery:\n  queryRetries: 0\nauth:\n  file: " + authFile + "\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestBuildRestoresSessionAndSendsToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"Alice","address":"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"}]`))
	}))
	defer srv.Close()

	authFile := filepath.Join(t.TempDir(), "auth.json")
	require.NoError(t, os.WriteFile(authFile, []byte(`{"token":"persisted"}`), 0o600))

	rt, err := Build(loadConfig(t, srv.URL, authFile), zap.NewNop(), Options{Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)
	defer rt.Close()

	assert.True(t, rt.Auth.IsAuthenticated())
	admins, err := rt.Services.Admins.List(context.Background()).Result()
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "Alice", admins[0].Name)
	assert.Equal(t, "Bearer persisted", gotAuth)
	assert.NotNil(t, rt.Views)
	assert.NotNil(t, rt.Chains)
}

func TestBuildRaisesLoginToastOnForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"Forbidden"}`))
	}))
	defer srv.Close()

	var toasts []store.Toast
	rt, err := Build(loadConfig(t, srv.URL, filepath.Join(t.TempDir(), "auth.json")), zap.NewNop(), Options{
		OnToast: func(t store.Toast) { toasts = append(toasts, t) },
	})
	require.NoError(t, err)
	defer rt.Close()

	_, err = rt.Services.Admins.List(context.Background()).Result()
	require.Error(t, err)
	require.NotEmpty(t, toasts)
	assert.Equal(t, "login-required", toasts[0].ID)
}
