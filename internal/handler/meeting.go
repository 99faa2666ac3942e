package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mindmeet/mindmeet/internal/domain"
	"github.com/mindmeet/mindmeet/internal/service"
)

// maxRecordingSize caps an uploaded recording.
const maxRecordingSize = 512 << 20

// uploadFailedMessage is the plain-text body of a failed upload.
const uploadFailedMessage = "Error uploading recording"

// MeetingHandler serves the /api/meetings endpoints.
type MeetingHandler struct {
	meetings *service.MeetingService
}

// NewMeetingHandler creates a new MeetingHandler.
func NewMeetingHandler(meetings *service.MeetingService) *MeetingHandler {
	return &MeetingHandler{meetings: meetings}
}

type createMeetingRequest struct {
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	StartTime         *time.Time `json:"startTime"`
	ParticipantEmails []string   `json:"participantEmails"`
}

type updateMeetingRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartTime   *time.Time `json:"startTime"`
}

// HandleCreate creates a meeting organized by the caller.
func (h *MeetingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req createMeetingRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	meeting, err := h.meetings.Create(r.Context(), user.Email, service.CreateMeetingInput{
		Title:             req.Title,
		Description:       req.Description,
		StartTime:         req.StartTime,
		ParticipantEmails: req.ParticipantEmails,
	})
	if err != nil {
		h.fail(w, http.StatusBadRequest, "create meeting", err)
		return
	}

	writeJSON(w, http.StatusCreated, toMeetingDTO(meeting))
}

// HandleList returns one page of the meetings the caller belongs to.
// Query parameters: page (zero-based), size, sort=field[,asc|desc] (repeatable).
func (h *MeetingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	req, err := parsePageRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.meetings.List(r.Context(), user.Email, req)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "list meetings", err)
		return
	}

	writeJSON(w, http.StatusOK, toMeetingPageDTO(page))
}

func parsePageRequest(r *http.Request) (domain.PageRequest, error) {
	q := r.URL.Query()
	req := domain.PageRequest{Size: domain.DefaultPageSize}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, errors.New("invalid page")
		}
		req.Page = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return req, errors.New("invalid size")
		}
		req.Size = n
	}

	for _, v := range q["sort"] {
		field, dir, _ := strings.Cut(v, ",")
		if !domain.MeetingSortFields[field] {
			return req, errors.New("invalid sort field: " + field)
		}
		order := domain.SortOrder{Field: field}
		switch strings.ToLower(dir) {
		case "", "asc":
		case "desc":
			order.Desc = true
		default:
			return req, errors.New("invalid sort direction: " + dir)
		}
		req.Sort = append(req.Sort, order)
	}
	return req, nil
}

// HandleGet returns one meeting the caller may view.
func (h *MeetingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, ok := meetingID(w, r, http.StatusNotFound)
	if !ok {
		return
	}

	meeting, err := h.meetings.GetByID(r.Context(), id, user.Email)
	if err != nil {
		h.fail(w, http.StatusNotFound, "get meeting", err)
		return
	}

	writeJSON(w, http.StatusOK, toMeetingDTO(meeting))
}

// HandleUpdate changes title, description and start time. Omitted fields
// are left unchanged.
func (h *MeetingHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, ok := meetingID(w, r, http.StatusNotFound)
	if !ok {
		return
	}

	var req updateMeetingRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	meeting, err := h.meetings.Update(r.Context(), id, user.Email, service.UpdateMeetingInput{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
	})
	if err != nil {
		h.fail(w, http.StatusNotFound, "update meeting", err)
		return
	}

	writeJSON(w, http.StatusOK, toMeetingDTO(meeting))
}

// HandleDelete removes a meeting organized by the caller.
func (h *MeetingHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, ok := meetingID(w, r, http.StatusNotFound)
	if !ok {
		return
	}

	if err := h.meetings.Delete(r.Context(), id, user.Email); err != nil {
		h.fail(w, http.StatusNotFound, "delete meeting", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleStart moves a meeting to IN_PROGRESS.
func (h *MeetingHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "start meeting", h.meetings.Start)
}

// HandleFinish moves a meeting to COMPLETED.
func (h *MeetingHandler) HandleFinish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "finish meeting", h.meetings.Finish)
}

// HandleCancel moves a SCHEDULED meeting to CANCELLED.
func (h *MeetingHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel meeting", h.meetings.Cancel)
}

type transitionFunc func(ctx context.Context, id int64, callerEmail string) (*domain.Meeting, error)

func (h *MeetingHandler) transition(w http.ResponseWriter, r *http.Request, op string, fn transitionFunc) {
	user := UserFromContext(r.Context())
	id, ok := meetingID(w, r, http.StatusBadRequest)
	if !ok {
		return
	}

	meeting, err := fn(r.Context(), id, user.Email)
	if err != nil {
		h.fail(w, http.StatusBadRequest, op, err)
		return
	}

	writeJSON(w, http.StatusOK, toMeetingDTO(meeting))
}

// HandleUploadRecording stores the multipart "file" field as the meeting
// recording and responds with its URL as plain text.
func (h *MeetingHandler) HandleUploadRecording(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeText(w, http.StatusBadRequest, uploadFailedMessage)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRecordingSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		slog.Warn("upload recording: read form", "meeting_id", id, "error", err)
		writeText(w, http.StatusBadRequest, uploadFailedMessage)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Warn("upload recording: read file", "meeting_id", id, "error", err)
		writeText(w, http.StatusBadRequest, uploadFailedMessage)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	url, err := h.meetings.UploadRecording(r.Context(), id, user.Email, service.Recording{
		Filename:    filepath.Base(header.Filename),
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		logFailure("upload recording", err)
		writeText(w, http.StatusBadRequest, uploadFailedMessage)
		return
	}

	writeText(w, http.StatusOK, url)
}

// HandleAddParticipant adds the user named by the participantEmail
// parameter to the meeting.
func (h *MeetingHandler) HandleAddParticipant(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, ok := meetingID(w, r, http.StatusBadRequest)
	if !ok {
		return
	}

	email := strings.TrimSpace(r.FormValue("participantEmail"))
	meeting, err := h.meetings.AddParticipant(r.Context(), id, email, user.Email)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "add participant", err)
		return
	}

	writeJSON(w, http.StatusOK, toMeetingDTO(meeting))
}

// HandleRecent returns the caller's latest meetings.
func (h *MeetingHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	meetings, err := h.meetings.Recent(r.Context(), user.Email)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "recent meetings", err)
		return
	}

	writeJSON(w, http.StatusOK, toMeetingDTOs(meetings))
}

// HandleStats summarizes the meetings the caller organized.
func (h *MeetingHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	stats, err := h.meetings.Stats(r.Context(), user.Email)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "meeting stats", err)
		return
	}

	writeJSON(w, http.StatusOK, toStatsDTO(stats))
}

// HandleFile serves a recording to members of its meeting. Everyone else
// gets 404.
func (h *MeetingHandler) HandleFile(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	key := r.PathValue("key")
	data, err := h.meetings.GetFile(r.Context(), key, user.Email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrAccessDenied) {
			slog.Error("get file", "key", key, "error", err)
		}
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Type", fileContentType(key, data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// recordingTypes covers recording formats missing from the builtin mime table.
var recordingTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
}

func fileContentType(key string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(key))
	if ct, ok := recordingTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

// meetingID parses the {id} path value, writing status on failure.
func meetingID(w http.ResponseWriter, r *http.Request, status int) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, status, "Invalid meeting ID")
		return 0, false
	}
	return id, true
}

// fail writes the fixed status for an endpoint along with a message derived
// from err. Unexpected errors are logged with their cause.
func (h *MeetingHandler) fail(w http.ResponseWriter, status int, op string, err error) {
	logFailure(op, err)
	writeError(w, status, meetingErrorMessage(err))
}

func meetingErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrMeetingNotFound):
		return "Meeting not found"
	case errors.Is(err, domain.ErrAccessDenied):
		return "Access denied"
	case errors.Is(err, domain.ErrNotOrganizer):
		return "Only the organizer can modify this meeting"
	case errors.Is(err, domain.ErrParticipantNotFound):
		return "Participant not found"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "Meeting cannot change to that status"
	case errors.Is(err, domain.ErrInvalidMediaType):
		return "Recording must be an audio or video file"
	case errors.Is(err, domain.ErrInvalidInput):
		return "Invalid meeting data"
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrOrganizerNotFound):
		return "User not found"
	default:
		return "Request failed"
	}
}

func logFailure(op string, err error) {
	for _, known := range []error{
		domain.ErrMeetingNotFound, domain.ErrAccessDenied, domain.ErrNotOrganizer,
		domain.ErrParticipantNotFound, domain.ErrInvalidTransition, domain.ErrInvalidMediaType,
		domain.ErrInvalidInput, domain.ErrUserNotFound, domain.ErrOrganizerNotFound,
	} {
		if errors.Is(err, known) {
			slog.Debug(op, "error", err)
			return
		}
	}
	slog.Error(op, "error", err)
}
