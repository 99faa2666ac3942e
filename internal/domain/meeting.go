package domain

import (
	"context"
	"strings"
	"time"
	"unicode"
)

// MeetingStatus is the lifecycle state of a meeting.
type MeetingStatus string

const (
	MeetingStatusScheduled  MeetingStatus = "SCHEDULED"
	MeetingStatusInProgress MeetingStatus = "IN_PROGRESS"
	MeetingStatusCompleted  MeetingStatus = "COMPLETED"
	MeetingStatusCancelled  MeetingStatus = "CANCELLED"
)

// ProcessingStatus tracks transcription and summary generation. It moves
// independently of MeetingStatus.
type ProcessingStatus string

const (
	ProcessingStatusPending    ProcessingStatus = "PENDING"
	ProcessingStatusProcessing ProcessingStatus = "PROCESSING"
	ProcessingStatusCompleted  ProcessingStatus = "COMPLETED"
	ProcessingStatusFailed     ProcessingStatus = "FAILED"
)

// MaxTitleLength is the longest accepted meeting title, in characters.
const MaxTitleLength = 200

// UserSummary is the public identity of a user attached to a meeting.
type UserSummary struct {
	ID       int64
	FullName string
	Email    string
}

// Meeting is a scheduled event owned by a single organizer.
// Organizer and participants are referenced by user ID; repositories fill
// Organizer and Participants for reads.
type Meeting struct {
	ID                    int64
	Title                 string
	Description           string
	StartTime             time.Time
	EndTime               *time.Time
	DurationSeconds       *int64
	Status                MeetingStatus
	ProcessingStatus      ProcessingStatus
	RecordingURL          string
	Transcript            string
	Summary               string
	TranscriptionAccuracy *float64 // 0-100
	OrganizerID           int64
	Organizer             UserSummary
	Participants          []UserSummary
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewMeeting returns a SCHEDULED meeting with PENDING processing.
func NewMeeting(title, description string, startTime time.Time, organizer *User) *Meeting {
	return &Meeting{
		Title:            title,
		Description:      description,
		StartTime:        startTime,
		Status:           MeetingStatusScheduled,
		ProcessingStatus: ProcessingStatusPending,
		OrganizerID:      organizer.ID,
		Organizer:        organizer.Summary(),
	}
}

// Summary returns the public identity of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, FullName: u.FullName, Email: u.Email}
}

// IsOrganizer reports whether email belongs to the meeting organizer.
func (m *Meeting) IsOrganizer(email string) bool {
	return m.Organizer.Email == email
}

// IsParticipant reports whether email belongs to a participant.
func (m *Meeting) IsParticipant(email string) bool {
	for _, p := range m.Participants {
		if p.Email == email {
			return true
		}
	}
	return false
}

// CanView reports whether email may read the meeting.
func (m *Meeting) CanView(email string) bool {
	return m.IsOrganizer(email) || m.IsParticipant(email)
}

// AddParticipant adds u unless already present. It reports whether the
// participant set changed.
func (m *Meeting) AddParticipant(u *User) bool {
	for _, p := range m.Participants {
		if p.ID == u.ID {
			return false
		}
	}
	m.Participants = append(m.Participants, u.Summary())
	return true
}

// Start moves the meeting to IN_PROGRESS. The current status is not checked.
func (m *Meeting) Start(now time.Time) {
	m.Status = MeetingStatusInProgress
	if m.StartTime.IsZero() {
		m.StartTime = now
	}
}

// Finish moves the meeting to COMPLETED, stamps the end time and derives the
// duration in whole seconds from StartTime. The current status is not
// checked, so finishing twice overwrites the end time and duration.
func (m *Meeting) Finish(now time.Time) {
	m.Status = MeetingStatusCompleted
	end := now
	m.EndTime = &end
	d := int64(end.Sub(m.StartTime) / time.Second)
	m.DurationSeconds = &d
}

// Cancel moves a SCHEDULED meeting to CANCELLED.
func (m *Meeting) Cancel() error {
	if m.Status != MeetingStatusScheduled {
		return ErrInvalidTransition
	}
	m.Status = MeetingStatusCancelled
	return nil
}

// ValidateTitle checks the title is present, within MaxTitleLength and free
// of control characters. Titles end up in mail subjects.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrInvalidInput
	}
	if len([]rune(title)) > MaxTitleLength {
		return ErrInvalidInput
	}
	if strings.IndexFunc(title, unicode.IsControl) >= 0 {
		return ErrInvalidInput
	}
	return nil
}

// MeetingRepository defines persistence operations for meetings.
type MeetingRepository interface {
	// Create inserts the meeting together with its participants.
	Create(ctx context.Context, meeting *Meeting) error
	// GetByID returns the meeting with Organizer and Participants filled in.
	GetByID(ctx context.Context, id int64) (*Meeting, error)
	// Update persists every mutable column of the meeting.
	Update(ctx context.Context, meeting *Meeting) error
	// GetByRecordingURL returns the meeting whose recording is stored at url.
	GetByRecordingURL(ctx context.Context, url string) (*Meeting, error)
	Delete(ctx context.Context, id int64) error
	// AddParticipant links a user to a meeting. Linking twice is a no-op.
	AddParticipant(ctx context.Context, meetingID, userID int64) error
	// ListByMember returns meetings where the user is organizer or participant.
	ListByMember(ctx context.Context, userID int64, req PageRequest) (*Page[Meeting], error)
	CountByOrganizer(ctx context.Context, organizerID int64) (int64, error)
	CountByOrganizerAndStatus(ctx context.Context, organizerID int64, status MeetingStatus) (int64, error)
	// AverageAccuracyByOrganizer returns nil when no meeting has an accuracy.
	AverageAccuracyByOrganizer(ctx context.Context, organizerID int64) (*float64, error)
	UpdateProcessingStatus(ctx context.Context, id int64, status ProcessingStatus) error
}

// MeetingStats summarizes the meetings a user organized.
type MeetingStats struct {
	TotalOrganized           int64
	CompletedOrganized       int64
	AvgTranscriptionAccuracy float64
	EstimatedHoursSaved      int64
}
