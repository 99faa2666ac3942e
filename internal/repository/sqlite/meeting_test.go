package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mindmeet/mindmeet/internal/domain"
	"github.com/mindmeet/mindmeet/internal/repository/sqlite"
)

func seedMeeting(t *testing.T, db *sqlite.DB, title string, organizer *domain.User, participants ...*domain.User) *domain.Meeting {
	t.Helper()
	m := domain.NewMeeting(title, "desc", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), organizer)
	for _, p := range participants {
		m.AddParticipant(p)
	}
	if err := db.Meetings().Create(context.Background(), m); err != nil {
		t.Fatalf("seed meeting %s: %v", title, err)
	}
	return m
}

func TestMeetingRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	org := seedUser(t, db, "org@example.com")
	alice := seedUser(t, db, "alice@example.com")
	ctx := context.Background()

	m := seedMeeting(t, db, "Planning", org, alice)
	if m.ID == 0 {
		t.Fatal("expected meeting ID to be set")
	}

	got, err := db.Meetings().GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Planning" || got.Status != domain.MeetingStatusScheduled {
		t.Fatalf("unexpected meeting: %+v", got)
	}
	if got.ProcessingStatus != domain.ProcessingStatusPending {
		t.Fatalf("expected PENDING processing, got %s", got.ProcessingStatus)
	}
	if got.Organizer.Email != "org@example.com" || got.OrganizerID != org.ID {
		t.Fatalf("unexpected organizer: %+v", got.Organizer)
	}
	if len(got.Participants) != 1 || got.Participants[0].Email != "alice@example.com" {
		t.Fatalf("unexpected participants: %+v", got.Participants)
	}
	if !got.StartTime.Equal(m.StartTime) {
		t.Fatalf("start time mismatch: %v vs %v", got.StartTime, m.StartTime)
	}
	if got.EndTime != nil || got.DurationSeconds != nil || got.TranscriptionAccuracy != nil {
		t.Fatal("expected nullable fields to be nil")
	}
}

func TestMeetingRepository_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Meetings().GetByID(context.Background(), 404)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMeetingRepository_GetByRecordingURL(t *testing.T) {
	db := newTestDB(t)
	org := seedUser(t, db, "org@example.com")
	ctx := context.Background()

	m := seedMeeting(t, db, "Recorded", org)
	seedMeeting(t, db, "Unrecorded", org)
	m.RecordingURL = "/api/files/recordings/abc.mp4"
	if err := db.Meetings().Update(ctx, m); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := db.Meetings().GetByRecordingURL(ctx, m.RecordingURL)
	if err != nil {
		t.Fatalf("GetByRecordingURL: %v", err)
	}
	if got.ID != m.ID {
		t.Fatalf("expected meeting %d, got %d", m.ID, got.ID)
	}

	for _, url := range []string{"", "/api/files/recordings/other.mp4"} {
		if _, err := db.Meetings().GetByRecordingURL(ctx, url); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("url %q: expected ErrNotFound, got %v", url, err)
		}
	}
}

func TestMeetingRepository_Update(t *testing.T) {
	db := newTestDB(t)
	org := seedUser(t, db, "org@example.com")
	m := seedMeeting(t, db, "Standup", org)
	ctx := context.Background()

	m.Title = "Daily standup"
	m.Finish(m.StartTime.Add(90 * time.Minute))
	acc := 93.5
	m.TranscriptionAccuracy = &acc
	m.RecordingURL = "/api/files/recordings/x.mp4"
	if err := db.Meetings().Update(ctx, m); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := db.Meetings().GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Daily standup" || got.Status != domain.MeetingStatusCompleted {
		t.Fatalf("unexpected meeting: %+v", got)
	}
	if got.DurationSeconds == nil || *got.DurationSeconds != 5400 {
		t.Fatalf("expected duration 5400, got %v", got.DurationSeconds)
	}
	if got.EndTime == nil || !got.EndTime.Equal(*m.EndTime) {
		t.Fatalf("end time mismatch: %v", got.EndTime)
	}
	if got.TranscriptionAccuracy == nil || *got.TranscriptionAccuracy != 93.5 {
		t.Fatalf("expected accuracy 93.5, got %v", got.TranscriptionAccuracy)
	}
	if got.RecordingURL != "/api/files/recordings/x.mp4" {
		t.Fatalf("unexpected recording url %q", got.RecordingURL)
	}

	missing := &domain.Meeting{ID: 999, Title: "x", Status: domain.MeetingStatusScheduled}
	if err := db.Meetings().Update(ctx, missing); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMeetingRepository_DeleteCascadesParticipants(t *testing.T) {
	db := newTestDB(t)
	org := seedUser(t, db, "org@example.com")
	bob := seedUser(t, db, "bob@example.com")
	m := seedMeeting(t, db, "Retro", org, bob)
	ctx := context.Background()

	if err := db.Meetings().Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.Meetings().GetByID(ctx, m.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	var links int
	if err := db.SqlDB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM meeting_participants WHERE meeting_id = ?", m.ID).Scan(&links); err != nil {
		t.Fatalf("count participants: %v", err)
	}
	if links != 0 {
		t.Fatalf("expected participant links to be removed, got %d", links)
	}

	if err := db.Meetings().Delete(ctx, m.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMeetingRepository_AddParticipantIdempotent(t *testing.T) {
	db := newTestDB(t)
	org := seedUser(t, db, "org@example.com")
	carol := seedUser(t, db, "carol@example.com")
	m := seedMeeting(t, db, "Sync", org)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := db.Meetings().AddParticipant(ctx, m.ID, carol.ID); err != nil {
			t.Fatalf("AddParticipant #%d: %v", i+1, err)
		}
	}

	got, err := db.Meetings().GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Participants) != 1 {
		t.Fatalf("expected 1 participant, got %d", len(got.Participants))
	}
}

func TestMeetingRepository_ListByMember(t *testing.T) {
	db := newTestDB(t)
	org := seedUser(t, db, "org@example.com")
	dave := seedUser(t, db, "dave@example.com")
	other := seedUser(t, db, "other@example.com")

	seedMeeting(t, db, "B organized", dave)
	seedMeeting(t, db, "A invited", org, dave)
	seedMeeting(t, db, "C unrelated", other)
	seedMeeting(t, db, "D organized", dave)

	tests := []struct {
		name       string
		req        domain.PageRequest
		wantTitles []string
		wantTotal  int64
	}{
		{
			name:       "unsorted uses id order",
			req:        domain.PageRequest{Page: 0, Size: 10},
			wantTitles: []string{"B organized", "A invited", "D organized"},
			wantTotal:  3,
		},
		{
			name:       "sort by title ascending",
			req:        domain.PageRequest{Page: 0, Size: 10, Sort: []domain.SortOrder{{Field: "title"}}},
			wantTitles: []string{"A invited", "B organized", "D organized"},
			wantTotal:  3,
		},
		{
			name:       "sort by title descending",
			req:        domain.PageRequest{Page: 0, Size: 10, Sort: []domain.SortOrder{{Field: "title", Desc: true}}},
			wantTitles: []string{"D organized", "B organized", "A invited"},
			wantTotal:  3,
		},
		{
			name:       "unknown sort field is ignored",
			req:        domain.PageRequest{Page: 0, Size: 10, Sort: []domain.SortOrder{{Field: "password"}}},
			wantTitles: []string{"B organized", "A invited", "D organized"},
			wantTotal:  3,
		},
		{
			name:       "second page",
			req:        domain.PageRequest{Page: 1, Size: 2},
			wantTitles: []string{"D organized"},
			wantTotal:  3,
		},
		{
			name:       "page past the end",
			req:        domain.PageRequest{Page: 5, Size: 2},
			wantTitles: []string{},
			wantTotal:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := db.Meetings().ListByMember(context.Background(), dave.ID, tt.req)
			if err != nil {
				t.Fatalf("ListByMember: %v", err)
			}
			if page.TotalElements != tt.wantTotal {
				t.Fatalf("expected total %d, got %d", tt.wantTotal, page.TotalElements)
			}
			if len(page.Items) != len(tt.wantTitles) {
				t.Fatalf("expected %d items, got %d", len(tt.wantTitles), len(page.Items))
			}
			for i, want := range tt.wantTitles {
				if page.Items[i].Title != want {
					t.Errorf("item %d: expected %q, got %q", i, want, page.Items[i].Title)
				}
			}
		})
	}
}

func TestMeetingRepository_ListByMember_LoadsParticipants(t *testing.T) {
	db := newTestDB(t)
	org := seedUser(t, db, "org@example.com")
	p1 := seedUser(t, db, "p1@example.com")
	p2 := seedUser(t, db, "p2@example.com")
	seedMeeting(t, db, "Both", org, p1, p2)
	seedMeeting(t, db, "Solo", org)

	page, err := db.Meetings().ListByMember(context.Background(), org.ID, domain.PageRequest{Size: 10})
	if err != nil {
		t.Fatalf("ListByMember: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 meetings, got %d", len(page.Items))
	}
	if len(page.Items[0].Participants) != 2 {
		t.Fatalf("expected 2 participants on first meeting, got %d", len(page.Items[0].Participants))
	}
	if len(page.Items[1].Participants) != 0 {
		t.Fatalf("expected no participants on second meeting, got %d", len(page.Items[1].Participants))
	}
}

func TestMeetingRepository_Aggregates(t *testing.T) {
	db := newTestDB(t)
	org := seedUser(t, db, "org@example.com")
	ctx := context.Background()
	repo := db.Meetings()

	avg, err := repo.AverageAccuracyByOrganizer(ctx, org.ID)
	if err != nil {
		t.Fatalf("AverageAccuracyByOrganizer: %v", err)
	}
	if avg != nil {
		t.Fatalf("expected nil average with no meetings, got %v", *avg)
	}

	for i, acc := range []float64{80, 90} {
		m := seedMeeting(t, db, "M", org)
		a := acc
		m.TranscriptionAccuracy = &a
		if i == 0 {
			m.Finish(m.StartTime.Add(time.Hour))
		}
		if err := repo.Update(ctx, m); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	seedMeeting(t, db, "No accuracy", org)

	total, err := repo.CountByOrganizer(ctx, org.ID)
	if err != nil || total != 3 {
		t.Fatalf("CountByOrganizer: got %d, %v", total, err)
	}
	completed, err := repo.CountByOrganizerAndStatus(ctx, org.ID, domain.MeetingStatusCompleted)
	if err != nil || completed != 1 {
		t.Fatalf("CountByOrganizerAndStatus: got %d, %v", completed, err)
	}
	avg, err = repo.AverageAccuracyByOrganizer(ctx, org.ID)
	if err != nil {
		t.Fatalf("AverageAccuracyByOrganizer: %v", err)
	}
	if avg == nil || *avg != 85 {
		t.Fatalf("expected average 85, got %v", avg)
	}
}

func TestMeetingRepository_UpdateProcessingStatus(t *testing.T) {
	db := newTestDB(t)
	org := seedUser(t, db, "org@example.com")
	m := seedMeeting(t, db, "Talk", org)
	ctx := context.Background()

	if err := db.Meetings().UpdateProcessingStatus(ctx, m.ID, domain.ProcessingStatusProcessing); err != nil {
		t.Fatalf("UpdateProcessingStatus: %v", err)
	}
	got, err := db.Meetings().GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ProcessingStatus != domain.ProcessingStatusProcessing {
		t.Fatalf("expected PROCESSING, got %s", got.ProcessingStatus)
	}

	if err := db.Meetings().UpdateProcessingStatus(ctx, 999, domain.ProcessingStatusFailed); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
