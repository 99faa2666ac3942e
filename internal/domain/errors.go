package domain

import "errors"

// Repository-level errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrInvalidInput   = errors.New("invalid input")
)

// Authentication errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnsupported        = errors.New("not supported")
)

// Meeting errors.
var (
	ErrMeetingNotFound     = errors.New("meeting not found")
	ErrOrganizerNotFound   = errors.New("organizer not found")
	ErrAccessDenied        = errors.New("access denied")
	ErrNotOrganizer        = errors.New("only the organizer may modify the meeting")
	ErrInvalidMediaType    = errors.New("recording must be an audio or video file")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
)

// ErrNotification is returned when a notification that the caller depends on
// could not be delivered.
var ErrNotification = errors.New("notification delivery failed")
