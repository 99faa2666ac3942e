package domain_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mindmeet/mindmeet/internal/domain"
)

func newTestMeeting(start time.Time) *domain.Meeting {
	organizer := &domain.User{ID: 1, FullName: "Ada", Email: "a@x.com"}
	return domain.NewMeeting("Sprint Review", "", start, organizer)
}

func TestMeeting_NewMeetingDefaults(t *testing.T) {
	m := newTestMeeting(time.Now())

	if m.Status != domain.MeetingStatusScheduled {
		t.Fatalf("expected SCHEDULED, got %s", m.Status)
	}
	if m.ProcessingStatus != domain.ProcessingStatusPending {
		t.Fatalf("expected PENDING, got %s", m.ProcessingStatus)
	}
	if m.DurationSeconds != nil || m.EndTime != nil {
		t.Fatal("expected no end time or duration before finish")
	}
	if len(m.Participants) != 0 {
		t.Fatal("organizer must not be added as a participant")
	}
}

func TestMeeting_StartFinishDuration(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		elapsed  time.Duration
		expected int64
	}{
		{"zero", 0, 0},
		{"one hour one minute one second", 3661 * time.Second, 3661},
		{"sub-second truncated", 1500 * time.Millisecond, 1},
		{"large", 72 * time.Hour, 259200},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestMeeting(start)
			m.Start(start)
			if m.Status != domain.MeetingStatusInProgress {
				t.Fatalf("expected IN_PROGRESS, got %s", m.Status)
			}

			m.Finish(start.Add(tc.elapsed))
			if m.Status != domain.MeetingStatusCompleted {
				t.Fatalf("expected COMPLETED, got %s", m.Status)
			}
			if m.DurationSeconds == nil || *m.DurationSeconds != tc.expected {
				t.Fatalf("expected duration %d, got %v", tc.expected, m.DurationSeconds)
			}
		})
	}
}

func TestMeeting_FinishWithoutStart(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m := newTestMeeting(start)

	m.Finish(start.Add(90 * time.Second))

	if m.Status != domain.MeetingStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", m.Status)
	}
	if *m.DurationSeconds != 90 {
		t.Fatalf("expected duration 90, got %d", *m.DurationSeconds)
	}
}

func TestMeeting_FinishTwiceOverwrites(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m := newTestMeeting(start)

	m.Finish(start.Add(10 * time.Second))
	m.Finish(start.Add(20 * time.Second))

	if *m.DurationSeconds != 20 {
		t.Fatalf("expected duration 20 after second finish, got %d", *m.DurationSeconds)
	}
}

func TestMeeting_Cancel(t *testing.T) {
	m := newTestMeeting(time.Now())
	if err := m.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if m.Status != domain.MeetingStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", m.Status)
	}

	started := newTestMeeting(time.Now())
	started.Start(time.Now())
	if err := started.Cancel(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestMeeting_AccessChecks(t *testing.T) {
	m := newTestMeeting(time.Now())
	m.AddParticipant(&domain.User{ID: 2, Email: "p@x.com"})

	if !m.CanView("a@x.com") || !m.IsOrganizer("a@x.com") {
		t.Fatal("organizer should view and own the meeting")
	}
	if !m.CanView("p@x.com") || m.IsOrganizer("p@x.com") {
		t.Fatal("participant should view but not own the meeting")
	}
	if m.CanView("A@x.com") {
		t.Fatal("email comparison must be case-sensitive")
	}
	if m.CanView("stranger@x.com") {
		t.Fatal("stranger must not view the meeting")
	}
}

func TestMeeting_AddParticipantIdempotent(t *testing.T) {
	m := newTestMeeting(time.Now())
	p := &domain.User{ID: 2, Email: "p@x.com"}

	if !m.AddParticipant(p) {
		t.Fatal("first add should change the set")
	}
	if m.AddParticipant(p) {
		t.Fatal("second add should be a no-op")
	}
	if len(m.Participants) != 1 {
		t.Fatalf("expected 1 participant, got %d", len(m.Participants))
	}
}

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		ok    bool
	}{
		{"normal", "Standup", true},
		{"blank", "   ", false},
		{"empty", "", false},
		{"max length", strings.Repeat("a", domain.MaxTitleLength), true},
		{"too long", strings.Repeat("a", domain.MaxTitleLength+1), false},
		{"unicode", "Planung für Q3", true},
		{"crlf", "Standup\r\nBcc: someone@example.com", false},
		{"newline", "Standup\nBcc: someone@example.com", false},
		{"tab", "Stand\tup", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := domain.ValidateTitle(tc.title)
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestPage_TotalPages(t *testing.T) {
	p := &domain.Page[domain.Meeting]{Size: 5, TotalElements: 11}
	if p.TotalPages() != 3 {
		t.Fatalf("expected 3 pages, got %d", p.TotalPages())
	}
	empty := &domain.Page[domain.Meeting]{Size: 5}
	if empty.TotalPages() != 0 {
		t.Fatalf("expected 0 pages, got %d", empty.TotalPages())
	}
}
