package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mindmeet/mindmeet/internal/domain"
)

// ErrQueueFull is returned by Enqueue when no more jobs can be buffered.
var ErrQueueFull = errors.New("transcription queue full")

// TranscriptionQueue hands meetings to an in-process transcription worker.
// Enqueue never blocks; Run drains the queue until its context ends.
type TranscriptionQueue struct {
	meetings domain.MeetingRepository
	jobs     chan int64
}

var _ domain.Transcriber = (*TranscriptionQueue)(nil)

// NewTranscriptionQueue creates a queue buffering up to size meetings.
func NewTranscriptionQueue(meetings domain.MeetingRepository, size int) *TranscriptionQueue {
	if size < 1 {
		size = 1
	}
	return &TranscriptionQueue{
		meetings: meetings,
		jobs:     make(chan int64, size),
	}
}

// Enqueue schedules transcription of a meeting's recording.
func (q *TranscriptionQueue) Enqueue(ctx context.Context, meetingID int64) error {
	select {
	case q.jobs <- meetingID:
		slog.Debug("transcription queued", "meeting_id", meetingID)
		return nil
	default:
		return ErrQueueFull
	}
}

// Run processes queued meetings until ctx is cancelled.
func (q *TranscriptionQueue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-q.jobs:
			q.process(ctx, id)
		}
	}
}

// process marks the meeting as PROCESSING. Producing the transcript itself
// is left to an external speech-to-text backend.
func (q *TranscriptionQueue) process(ctx context.Context, meetingID int64) {
	if err := q.meetings.UpdateProcessingStatus(ctx, meetingID, domain.ProcessingStatusProcessing); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.Warn("transcription skipped, meeting gone", "meeting_id", meetingID)
			return
		}
		slog.Error("transcription status update failed", "meeting_id", meetingID, "error", err)
		return
	}
	slog.Info("transcription started", "meeting_id", meetingID)
}
