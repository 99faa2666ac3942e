package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mindmeet/mindmeet/internal/domain"
)

// RecentMeetingsLimit is the size of the recent-meetings listing.
const RecentMeetingsLimit = 5

// minutesSavedPerMeeting is the note-taking time a completed meeting saves.
const minutesSavedPerMeeting = 15

// FileURLPrefix is the path under which stored files are served.
const FileURLPrefix = "/api/files/"

// CreateMeetingInput holds the fields accepted when creating a meeting.
type CreateMeetingInput struct {
	Title             string
	Description       string
	StartTime         *time.Time
	ParticipantEmails []string
}

// UpdateMeetingInput holds a partial update. Nil fields are left unchanged.
type UpdateMeetingInput struct {
	Title       *string
	Description *string
	StartTime   *time.Time
}

// Recording is an uploaded recording file.
type Recording struct {
	Filename    string
	ContentType string
	Data        []byte
}

// MeetingService enforces meeting access rules and drives the meeting lifecycle.
type MeetingService struct {
	meetings    domain.MeetingRepository
	users       domain.UserRepository
	files       domain.FileStore
	notifier    domain.Notifier
	transcriber domain.Transcriber
	now         func() time.Time
}

// NewMeetingService creates a new MeetingService.
func NewMeetingService(meetings domain.MeetingRepository, users domain.UserRepository, files domain.FileStore, notifier domain.Notifier, transcriber domain.Transcriber) *MeetingService {
	return &MeetingService{
		meetings:    meetings,
		users:       users,
		files:       files,
		notifier:    notifier,
		transcriber: transcriber,
		now:         time.Now,
	}
}

// WithClock replaces the time source used for lifecycle timestamps.
func (s *MeetingService) WithClock(now func() time.Time) *MeetingService {
	s.now = now
	return s
}

// Create schedules a meeting organized by organizerEmail. Participant emails
// that match no user are skipped.
func (s *MeetingService) Create(ctx context.Context, organizerEmail string, in CreateMeetingInput) (*domain.Meeting, error) {
	if err := domain.ValidateTitle(in.Title); err != nil {
		return nil, fmt.Errorf("%w: title is required and at most %d characters", err, domain.MaxTitleLength)
	}

	organizer, err := s.users.GetByEmail(ctx, organizerEmail)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrOrganizerNotFound
		}
		return nil, fmt.Errorf("get organizer: %w", err)
	}

	start := s.now()
	if in.StartTime != nil {
		start = *in.StartTime
	}

	meeting := domain.NewMeeting(in.Title, in.Description, start, organizer)
	for _, email := range in.ParticipantEmails {
		participant, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				slog.Debug("skipping unknown participant", "email", email)
				continue
			}
			return nil, fmt.Errorf("get participant: %w", err)
		}
		meeting.AddParticipant(participant)
	}

	if err := s.meetings.Create(ctx, meeting); err != nil {
		return nil, fmt.Errorf("create meeting: %w", err)
	}

	slog.Info("meeting created", "meeting_id", meeting.ID, "organizer_id", organizer.ID,
		"participants", len(meeting.Participants))

	if err := s.notifier.MeetingCreated(ctx, meeting); err != nil {
		slog.Warn("meeting created notification failed", "meeting_id", meeting.ID, "error", err)
	}
	return meeting, nil
}

// GetByID returns a meeting the caller organizes or participates in.
func (s *MeetingService) GetByID(ctx context.Context, id int64, callerEmail string) (*domain.Meeting, error) {
	meeting, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !meeting.CanView(callerEmail) {
		return nil, domain.ErrAccessDenied
	}
	return meeting, nil
}

// List returns a page of meetings the caller organizes or participates in.
func (s *MeetingService) List(ctx context.Context, callerEmail string, req domain.PageRequest) (*domain.Page[domain.Meeting], error) {
	user, err := s.caller(ctx, callerEmail)
	if err != nil {
		return nil, err
	}

	if req.Page < 0 {
		req.Page = 0
	}
	if req.Size <= 0 {
		req.Size = domain.DefaultPageSize
	}
	if req.Size > domain.MaxPageSize {
		req.Size = domain.MaxPageSize
	}

	page, err := s.meetings.ListByMember(ctx, user.ID, req)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	return page, nil
}

// Recent returns the caller's most recently created meetings.
func (s *MeetingService) Recent(ctx context.Context, callerEmail string) ([]domain.Meeting, error) {
	page, err := s.List(ctx, callerEmail, domain.PageRequest{
		Page: 0,
		Size: RecentMeetingsLimit,
		Sort: []domain.SortOrder{{Field: "createdAt", Desc: true}},
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Update applies the non-nil fields of in.
func (s *MeetingService) Update(ctx context.Context, id int64, callerEmail string, in UpdateMeetingInput) (*domain.Meeting, error) {
	meeting, err := s.loadOwned(ctx, id, callerEmail)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if err := domain.ValidateTitle(*in.Title); err != nil {
			return nil, fmt.Errorf("%w: title is required and at most %d characters", err, domain.MaxTitleLength)
		}
		meeting.Title = *in.Title
	}
	if in.Description != nil {
		meeting.Description = *in.Description
	}
	if in.StartTime != nil {
		meeting.StartTime = *in.StartTime
	}

	if err := s.meetings.Update(ctx, meeting); err != nil {
		return nil, fmt.Errorf("update meeting: %w", err)
	}
	slog.Info("meeting updated", "meeting_id", meeting.ID)
	return meeting, nil
}

// Delete removes a meeting and its participant links.
func (s *MeetingService) Delete(ctx context.Context, id int64, callerEmail string) error {
	meeting, err := s.loadOwned(ctx, id, callerEmail)
	if err != nil {
		return err
	}

	if err := s.meetings.Delete(ctx, meeting.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrMeetingNotFound
		}
		return fmt.Errorf("delete meeting: %w", err)
	}
	slog.Info("meeting deleted", "meeting_id", meeting.ID)

	s.removeFile(ctx, meeting.RecordingURL)
	return nil
}

// Start moves the meeting to IN_PROGRESS and notifies participants.
func (s *MeetingService) Start(ctx context.Context, id int64, callerEmail string) (*domain.Meeting, error) {
	meeting, err := s.loadOwned(ctx, id, callerEmail)
	if err != nil {
		return nil, err
	}

	meeting.Start(s.now())
	if err := s.meetings.Update(ctx, meeting); err != nil {
		return nil, fmt.Errorf("start meeting: %w", err)
	}
	slog.Info("meeting started", "meeting_id", meeting.ID)

	if err := s.notifier.MeetingStarted(ctx, meeting); err != nil {
		slog.Warn("meeting started notification failed", "meeting_id", meeting.ID, "error", err)
	}
	return meeting, nil
}

// Finish completes the meeting and computes its duration. Transcription is
// triggered when a recording has already been uploaded.
func (s *MeetingService) Finish(ctx context.Context, id int64, callerEmail string) (*domain.Meeting, error) {
	meeting, err := s.loadOwned(ctx, id, callerEmail)
	if err != nil {
		return nil, err
	}

	meeting.Finish(s.now())
	if err := s.meetings.Update(ctx, meeting); err != nil {
		return nil, fmt.Errorf("finish meeting: %w", err)
	}
	slog.Info("meeting finished", "meeting_id", meeting.ID, "duration_seconds", *meeting.DurationSeconds)

	if meeting.RecordingURL != "" {
		s.transcribe(ctx, meeting.ID)
	}
	return meeting, nil
}

// Cancel moves a SCHEDULED meeting to CANCELLED.
func (s *MeetingService) Cancel(ctx context.Context, id int64, callerEmail string) (*domain.Meeting, error) {
	meeting, err := s.loadOwned(ctx, id, callerEmail)
	if err != nil {
		return nil, err
	}

	if err := meeting.Cancel(); err != nil {
		return nil, fmt.Errorf("cancel meeting in status %s: %w", meeting.Status, err)
	}
	if err := s.meetings.Update(ctx, meeting); err != nil {
		return nil, fmt.Errorf("cancel meeting: %w", err)
	}
	slog.Info("meeting cancelled", "meeting_id", meeting.ID)
	return meeting, nil
}

// UploadRecording stores an audio or video file for the meeting, records its
// URL and triggers transcription.
func (s *MeetingService) UploadRecording(ctx context.Context, id int64, callerEmail string, rec Recording) (string, error) {
	meeting, err := s.loadOwned(ctx, id, callerEmail)
	if err != nil {
		return "", err
	}

	// Media types are matched case-sensitively, as browsers send them.
	if !strings.HasPrefix(rec.ContentType, "audio/") && !strings.HasPrefix(rec.ContentType, "video/") {
		return "", domain.ErrInvalidMediaType
	}

	key := "recordings/" + uuid.NewString() + strings.ToLower(path.Ext(rec.Filename))
	if err := s.files.Save(ctx, key, rec.Data); err != nil {
		return "", fmt.Errorf("store recording: %w", err)
	}

	previous := meeting.RecordingURL
	meeting.RecordingURL = FileURLPrefix + key
	if err := s.meetings.Update(ctx, meeting); err != nil {
		s.removeFile(ctx, meeting.RecordingURL)
		return "", fmt.Errorf("save recording url: %w", err)
	}
	slog.Info("recording uploaded", "meeting_id", meeting.ID, "key", key, "bytes", len(rec.Data))

	s.removeFile(ctx, previous)

	s.transcribe(ctx, meeting.ID)
	return meeting.RecordingURL, nil
}

// AddParticipant adds the user with participantEmail to the meeting. Adding
// an existing participant changes nothing.
func (s *MeetingService) AddParticipant(ctx context.Context, id int64, participantEmail, callerEmail string) (*domain.Meeting, error) {
	meeting, err := s.loadOwned(ctx, id, callerEmail)
	if err != nil {
		return nil, err
	}

	participant, err := s.users.GetByEmail(ctx, participantEmail)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}

	if meeting.AddParticipant(participant) {
		if err := s.meetings.AddParticipant(ctx, meeting.ID, participant.ID); err != nil {
			return nil, fmt.Errorf("add participant: %w", err)
		}
		slog.Info("participant added", "meeting_id", meeting.ID, "user_id", participant.ID)
	}

	if err := s.notifier.ParticipantAdded(ctx, meeting, participant); err != nil {
		slog.Warn("participant notification failed", "meeting_id", meeting.ID, "error", err)
	}
	return meeting, nil
}

// Stats summarizes the meetings the caller organized.
func (s *MeetingService) Stats(ctx context.Context, callerEmail string) (*domain.MeetingStats, error) {
	user, err := s.caller(ctx, callerEmail)
	if err != nil {
		return nil, err
	}

	total, err := s.meetings.CountByOrganizer(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("count meetings: %w", err)
	}
	completed, err := s.meetings.CountByOrganizerAndStatus(ctx, user.ID, domain.MeetingStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("count completed meetings: %w", err)
	}
	avg, err := s.meetings.AverageAccuracyByOrganizer(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("average accuracy: %w", err)
	}

	stats := &domain.MeetingStats{
		TotalOrganized:      total,
		CompletedOrganized:  completed,
		EstimatedHoursSaved: completed * minutesSavedPerMeeting / 60,
	}
	if avg != nil {
		stats.AvgTranscriptionAccuracy = *avg
	}
	return stats, nil
}

// GetFile returns the bytes of a recording stored under key. Only members of
// the meeting that owns the recording may read it.
func (s *MeetingService) GetFile(ctx context.Context, key, callerEmail string) ([]byte, error) {
	meeting, err := s.meetings.GetByRecordingURL(ctx, FileURLPrefix+key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get meeting by recording: %w", err)
	}
	if !meeting.CanView(callerEmail) {
		return nil, domain.ErrAccessDenied
	}
	return s.files.Get(ctx, key)
}

// removeFile deletes the blob behind a recording URL. Failures only leave an
// orphaned blob, so they are logged.
func (s *MeetingService) removeFile(ctx context.Context, url string) {
	key, ok := strings.CutPrefix(url, FileURLPrefix)
	if !ok || key == "" {
		return
	}
	if err := s.files.Delete(ctx, key); err != nil {
		slog.Warn("delete recording blob failed", "key", key, "error", err)
	}
}

func (s *MeetingService) load(ctx context.Context, id int64) (*domain.Meeting, error) {
	meeting, err := s.meetings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	return meeting, nil
}

// loadOwned loads a meeting and requires callerEmail to be its organizer.
func (s *MeetingService) loadOwned(ctx context.Context, id int64, callerEmail string) (*domain.Meeting, error) {
	meeting, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !meeting.IsOrganizer(callerEmail) {
		return nil, domain.ErrNotOrganizer
	}
	return meeting, nil
}

func (s *MeetingService) caller(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *MeetingService) transcribe(ctx context.Context, meetingID int64) {
	if err := s.transcriber.Enqueue(ctx, meetingID); err != nil {
		slog.Error("transcription not started", "meeting_id", meetingID, "error", err)
	}
}
