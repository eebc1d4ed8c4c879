package store

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthStoreLifecycle(t *testing.T) {
	s := NewAuthStore("", nil)
	assert.False(t, s.IsAuthenticated())
	_, err := s.RequireToken()
	assert.ErrorIs(t, err, ErrNoToken)

	s.Login("tok", AdminIdentity{Address: "0xabc", Name: "Ops"})
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "tok", s.Token())
	assert.Equal(t, "Ops", s.State().Admin.Name)

	s.SetToken("")
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, "0xabc", s.State().Admin.Address, "identity kept")

	s.Logout()
	assert.Equal(t, AuthState{}, s.State())
}

func TestAuthStorePersistHydrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth", "session.json")

	first := NewAuthStore(path, nil)
	require.NoError(t, first.Hydrate(), "missing file is not an error")
	assert.False(t, first.IsAuthenticated())

	first.Login("persisted", AdminIdentity{Address: "0xdef", Roles: []string{"admin"}})
	require.NoError(t, first.Persist())

	second := NewAuthStore(path, nil)
	require.NoError(t, second.Hydrate())
	assert.True(t, second.IsAuthenticated())
	assert.Equal(t, "persisted", second.Token())
	assert.Equal(t, []string{"admin"}, second.State().Admin.Roles)

	second.Logout()
	require.NoError(t, second.Persist())
	third := NewAuthStore(path, nil)
	require.NoError(t, third.Hydrate())
	assert.False(t, third.IsAuthenticated())
}

func TestUIStoreToasts(t *testing.T) {
	var seen []string
	s := NewUIStore(func(t Toast) { seen = append(seen, t.Title) })

	a := s.AddToast(Toast{Title: "Saved", Variant: ToastSuccess})
	assert.NotEmpty(t, a.ID)
	require.NotNil(t, a.Duration)
	assert.Equal(t, DefaultToastDuration, *a.Duration)

	sticky := 0
	b := s.AddToast(Toast{ID: "fixed", Title: "Heads up", Variant: ToastWarning, Duration: &sticky})
	assert.Equal(t, "fixed", b.ID)
	assert.Equal(t, 0, *b.Duration)

	before := s.Toasts()
	s.DismissToast(a.ID)
	assert.Len(t, before, 2, "earlier snapshot unchanged")
	assert.Len(t, s.Toasts(), 1)
	assert.Equal(t, []string{"Saved", "Heads up"}, seen)

	s.SetGlobalLoading(true)
	assert.True(t, s.IsGlobalLoading())
}

func TestSessionExpiredQueuesOneLoginToast(t *testing.T) {
	s := NewUIStore(nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.SessionExpired()
		}()
	}
	wg.Wait()

	toasts := s.Toasts()
	require.Len(t, toasts, 1)
	got := toasts[0]
	assert.Equal(t, LoginRequiredToastID, got.ID)
	assert.Equal(t, "Session expired", got.Title)
	assert.Equal(t, "Please log in to continue.", got.Description)
	assert.Equal(t, ToastError, got.Variant)
	assert.Equal(t, 0, *got.Duration)
	assert.Equal(t, &ToastAction{Label: "Log in", To: "/login"}, got.Action)

	s.DismissToast(LoginRequiredToastID)
	s.SessionExpired()
	assert.True(t, s.HasToast(LoginRequiredToastID))
}
