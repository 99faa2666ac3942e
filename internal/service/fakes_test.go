package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mindmeet/mindmeet/internal/domain"
	"github.com/mindmeet/mindmeet/internal/repository/sqlite"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fakeNotifier records every notification and can be told to fail.
type fakeNotifier struct {
	mu   sync.Mutex
	fail bool

	welcomed    []string
	resetTokens map[string]string
	created     []int64
	started     []int64
	added       []string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{resetTokens: make(map[string]string)}
}

var errDeliveryFailed = errors.New("smtp unavailable")

func (n *fakeNotifier) Welcome(_ context.Context, user *domain.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errDeliveryFailed
	}
	n.welcomed = append(n.welcomed, user.Email)
	return nil
}

func (n *fakeNotifier) PasswordReset(_ context.Context, user *domain.User, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errDeliveryFailed
	}
	n.resetTokens[user.Email] = token
	return nil
}

func (n *fakeNotifier) MeetingCreated(_ context.Context, m *domain.Meeting) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errDeliveryFailed
	}
	n.created = append(n.created, m.ID)
	return nil
}

func (n *fakeNotifier) MeetingStarted(_ context.Context, m *domain.Meeting) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errDeliveryFailed
	}
	n.started = append(n.started, m.ID)
	return nil
}

func (n *fakeNotifier) ParticipantAdded(_ context.Context, _ *domain.Meeting, u *domain.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errDeliveryFailed
	}
	n.added = append(n.added, u.Email)
	return nil
}

// fakeTranscriber counts enqueued meetings.
type fakeTranscriber struct {
	mu   sync.Mutex
	fail bool
	ids  []int64
}

func (f *fakeTranscriber) Enqueue(_ context.Context, meetingID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("queue full")
	}
	f.ids = append(f.ids, meetingID)
	return nil
}

func (f *fakeTranscriber) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}
