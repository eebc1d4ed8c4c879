package store

import (
	"sync"

	"github.com/google/uuid"
)

// ToastVariant is the severity of a notification.
type ToastVariant string

const (
	ToastInfo    ToastVariant = "info"
	ToastSuccess ToastVariant = "success"
	ToastWarning ToastVariant = "warning"
	ToastError   ToastVariant = "error"
)

// DefaultToastDuration in milliseconds. Zero keeps a toast until dismissed.
const DefaultToastDuration = 5000

// LoginRequiredToastID is the fixed id of the session-expired toast.
const LoginRequiredToastID = "login-required"

// ToastAction links a toast to a route.
type ToastAction struct {
	Label string `json:"label"`
	To    string `json:"to,omitempty"`
}

// Toast is a queued notification.
type Toast struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Variant     ToastVariant `json:"variant"`
	// Duration in milliseconds; nil means DefaultToastDuration.
	Duration *int         `json:"duration,omitempty"`
	Action   *ToastAction `json:"action,omitempty"`
}

// UIStore holds toasts and the global loading flag.
type UIStore struct {
	mu            sync.RWMutex
	toasts        []Toast
	globalLoading bool
	onToast       func(Toast)
}

// NewUIStore creates an empty store. onToast, when set, is called for every added toast.
func NewUIStore(onToast func(Toast)) *UIStore {
	return &UIStore{onToast: onToast}
}

// AddToast appends a toast, filling in a random id and the default duration.
func (s *UIStore) AddToast(t Toast) Toast {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Duration == nil {
		d := DefaultToastDuration
		t.Duration = &d
	}

	s.mu.Lock()
	s.appendLocked(t)
	s.mu.Unlock()

	if s.onToast != nil {
		s.onToast(t)
	}
	return t
}

// appendLocked copies the queue so snapshots handed out by Toasts stay unchanged.
func (s *UIStore) appendLocked(t Toast) {
	next := make([]Toast, len(s.toasts), len(s.toasts)+1)
	copy(next, s.toasts)
	s.toasts = append(next, t)
}

// DismissToast removes every toast with id.
func (s *UIStore) DismissToast(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]Toast, 0, len(s.toasts))
	for _, t := range s.toasts {
		if t.ID != id {
			next = append(next, t)
		}
	}
	s.toasts = next
}

// Toasts returns the queued toasts. The slice must not be modified.
func (s *UIStore) Toasts() []Toast {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.toasts
}

// HasToast reports whether a toast with id is queued.
func (s *UIStore) HasToast(id string) bool {
	for _, t := range s.Toasts() {
		if t.ID == id {
			return true
		}
	}
	return false
}

// SetGlobalLoading sets the global loading flag.
func (s *UIStore) SetGlobalLoading(v bool) {
	s.mu.Lock()
	s.globalLoading = v
	s.mu.Unlock()
}

// IsGlobalLoading reports the global loading flag.
func (s *UIStore) IsGlobalLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.globalLoading
}

// SessionExpired implements port.SessionNotifier: it queues the login prompt once, no
// matter how many requests were rejected.
func (s *UIStore) SessionExpired() {
	sticky := 0
	toast := Toast{
		ID:          LoginRequiredToastID,
		Title:       "Session expired",
		Description: "Please log in to continue.",
		Variant:     ToastError,
		Duration:    &sticky,
		Action:      &ToastAction{Label: "Log in", To: "/login"},
	}

	s.mu.Lock()
	for _, t := range s.toasts {
		if t.ID == LoginRequiredToastID {
			s.mu.Unlock()
			return
		}
	}
	s.appendLocked(toast)
	s.mu.Unlock()

	if s.onToast != nil {
		s.onToast(toast)
	}
}
