package domain

import "context"

// FileStore abstracts raw file byte storage.
// The default implementation stores BLOBs in the database; this interface
// allows swapping to filesystem, S3, or another backend later.
type FileStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Notifier delivers user-facing messages.
type Notifier interface {
	Welcome(ctx context.Context, user *User) error
	PasswordReset(ctx context.Context, user *User, resetToken string) error
	MeetingCreated(ctx context.Context, meeting *Meeting) error
	MeetingStarted(ctx context.Context, meeting *Meeting) error
	ParticipantAdded(ctx context.Context, meeting *Meeting, participant *User) error
}

// Transcriber starts transcription of a meeting's recording.
type Transcriber interface {
	Enqueue(ctx context.Context, meetingID int64) error
}
