package handler

import (
	"time"

	"github.com/mindmeet/mindmeet/internal/domain"
	"github.com/mindmeet/mindmeet/internal/service"
)

// AuthResponse is returned by every authentication endpoint.
type AuthResponse struct {
	Token    *string `json:"token"`
	Message  string  `json:"message"`
	Success  bool    `json:"success"`
	UserID   *int64  `json:"userId,omitempty"`
	FullName string  `json:"fullName,omitempty"`
	Email    string  `json:"email,omitempty"`
}

func authSuccess(res *service.AuthResult, message string) AuthResponse {
	return AuthResponse{
		Token:    &res.Token,
		Message:  message,
		Success:  true,
		UserID:   &res.User.ID,
		FullName: res.User.FullName,
		Email:    res.User.Email,
	}
}

func authFailure(message string) AuthResponse {
	return AuthResponse{Message: message}
}

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID        int64    `json:"id"`
	FullName  string   `json:"fullName"`
	Email     string   `json:"email"`
	Active    bool     `json:"active"`
	Provider  string   `json:"provider"`
	Roles     []string `json:"roles"`
	CreatedAt string   `json:"createdAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return UserDTO{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Active:    u.Active,
		Provider:  string(u.Provider),
		Roles:     roles,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// ParticipantDTO is a participant as shown on a meeting.
type ParticipantDTO struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// MeetingDTO is the JSON representation of a meeting. Optional values are
// null when unset.
type MeetingDTO struct {
	ID                    int64            `json:"id"`
	Title                 string           `json:"title"`
	Description           *string          `json:"description"`
	StartTime             string           `json:"startTime"`
	EndTime               *string          `json:"endTime"`
	DurationSeconds       *int64           `json:"durationSeconds"`
	Status                string           `json:"status"`
	ProcessingStatus      string           `json:"processingStatus"`
	RecordingURL          *string          `json:"recordingUrl"`
	Transcript            *string          `json:"transcript"`
	Summary               *string          `json:"summary"`
	TranscriptionAccuracy *float64         `json:"transcriptionAccuracy"`
	OrganizerName         string           `json:"organizerName"`
	OrganizerEmail        string           `json:"organizerEmail"`
	ParticipantsCount     int              `json:"participantsCount"`
	Participants          []ParticipantDTO `json:"participants"`
	CreatedAt             string           `json:"createdAt"`
	UpdatedAt             string           `json:"updatedAt"`
}

func toMeetingDTO(m *domain.Meeting) MeetingDTO {
	participants := make([]ParticipantDTO, len(m.Participants))
	for i, p := range m.Participants {
		participants[i] = ParticipantDTO{ID: p.ID, FullName: p.FullName, Email: p.Email}
	}

	dto := MeetingDTO{
		ID:                    m.ID,
		Title:                 m.Title,
		Description:           optional(m.Description),
		StartTime:             m.StartTime.UTC().Format(time.RFC3339),
		DurationSeconds:       m.DurationSeconds,
		Status:                string(m.Status),
		ProcessingStatus:      string(m.ProcessingStatus),
		RecordingURL:          optional(m.RecordingURL),
		Transcript:            optional(m.Transcript),
		Summary:               optional(m.Summary),
		TranscriptionAccuracy: m.TranscriptionAccuracy,
		OrganizerName:         m.Organizer.FullName,
		OrganizerEmail:        m.Organizer.Email,
		ParticipantsCount:     len(participants),
		Participants:          participants,
		CreatedAt:             m.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:             m.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if m.EndTime != nil {
		end := m.EndTime.UTC().Format(time.RFC3339)
		dto.EndTime = &end
	}
	return dto
}

func toMeetingDTOs(meetings []domain.Meeting) []MeetingDTO {
	dtos := make([]MeetingDTO, len(meetings))
	for i := range meetings {
		dtos[i] = toMeetingDTO(&meetings[i])
	}
	return dtos
}

// PageDTO is one page of a listing.
type PageDTO[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

func toMeetingPageDTO(p *domain.Page[domain.Meeting]) PageDTO[MeetingDTO] {
	totalPages := p.TotalPages()
	return PageDTO[MeetingDTO]{
		Content:       toMeetingDTOs(p.Items),
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    totalPages,
		First:         p.Page == 0,
		Last:          p.Page >= totalPages-1,
	}
}

// StatsDTO summarizes the caller's organized meetings.
type StatsDTO struct {
	TotalMeetings            int64   `json:"totalMeetings"`
	CompletedMeetings        int64   `json:"completedMeetings"`
	AvgTranscriptionAccuracy float64 `json:"avgTranscriptionAccuracy"`
	TimeSavedHours           int64   `json:"timeSavedHours"`
}

func toStatsDTO(s *domain.MeetingStats) StatsDTO {
	return StatsDTO{
		TotalMeetings:            s.TotalOrganized,
		CompletedMeetings:        s.CompletedOrganized,
		AvgTranscriptionAccuracy: s.AvgTranscriptionAccuracy,
		TimeSavedHours:           s.EstimatedHoursSaved,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
