package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mindmeet/mindmeet/internal/handler"
	"github.com/mindmeet/mindmeet/internal/notify"
	"github.com/mindmeet/mindmeet/internal/repository/sqlite"
	"github.com/mindmeet/mindmeet/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

// recordingSender keeps every email instead of delivering it.
type recordingSender struct {
	mu   sync.Mutex
	sent []notify.Email
}

func (s *recordingSender) Send(_ context.Context, msg notify.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type testEnv struct {
	db       *sqlite.DB
	auth     *service.AuthService
	meetings *service.MeetingService
	mail     *recordingSender
	srv      *httptest.Server
}

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestServices(t *testing.T, db *sqlite.DB, mail *recordingSender) (*service.AuthService, *service.MeetingService) {
	t.Helper()
	notifier := notify.New(mail, "http://mindmeet.test")
	auth := service.NewAuthService(db.Users(), db.Roles(), notifier, testJWTSecret, 4, time.Hour)
	queue := service.NewTranscriptionQueue(db.Meetings(), 16)
	meetings := service.NewMeetingService(db.Meetings(), db.Users(), db.FileStore(), notifier, queue)
	return auth, meetings
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	mail := &recordingSender{}
	auth, meetings := newTestServices(t, db, mail)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, auth, meetings, service.NewTokenBucket(100, 100), db)

	srv := httptest.NewServer(handler.Wrap(mux))
	t.Cleanup(srv.Close)

	return &testEnv{db: db, auth: auth, meetings: meetings, mail: mail, srv: srv}
}

// register creates an account through the service and returns its token.
func (e *testEnv) register(t *testing.T, name, email string) string {
	t.Helper()
	res, err := e.auth.Register(context.Background(), name, email, "password123")
	if err != nil {
		t.Fatalf("Register %s: %v", email, err)
	}
	return res.Token
}

// do sends a request with an optional JSON body and bearer token.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
}

func (s *recordingSender) last() notify.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return notify.Email{}
	}
	return s.sent[len(s.sent)-1]
}
