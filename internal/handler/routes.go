package handler

import (
	"net/http"

	"github.com/mindmeet/mindmeet/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, authService *service.AuthService, meetingService *service.MeetingService, limiter *service.TokenBucket, db Pinger) {
	auth := NewAuthHandler(authService)
	meetings := NewMeetingHandler(meetingService)

	protect := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(authService, h)
	}
	limit := func(h http.HandlerFunc) http.Handler {
		return RateLimit(limiter, h)
	}

	mux.HandleFunc("GET /healthz", HandleHealthz(db))

	// Auth
	mux.Handle("POST /api/auth/login", limit(auth.HandleLogin))
	mux.Handle("POST /api/auth/register", limit(auth.HandleRegister))
	mux.Handle("POST /api/auth/forgot-password", limit(auth.HandleForgotPassword))
	mux.Handle("POST /api/auth/reset-password", limit(auth.HandleResetPassword))
	mux.HandleFunc("GET /api/auth/validate-token", auth.HandleValidateToken)
	mux.HandleFunc("POST /api/auth/social-login/{provider}", auth.HandleSocialLogin)
	mux.Handle("GET /api/auth/me", protect(auth.HandleMe))

	// Meetings
	mux.Handle("POST /api/meetings", protect(meetings.HandleCreate))
	mux.Handle("GET /api/meetings", protect(meetings.HandleList))
	mux.Handle("GET /api/meetings/recent", protect(meetings.HandleRecent))
	mux.Handle("GET /api/meetings/stats", protect(meetings.HandleStats))
	mux.Handle("GET /api/meetings/{id}", protect(meetings.HandleGet))
	mux.Handle("PUT /api/meetings/{id}", protect(meetings.HandleUpdate))
	mux.Handle("DELETE /api/meetings/{id}", protect(meetings.HandleDelete))
	mux.Handle("POST /api/meetings/{id}/start", protect(meetings.HandleStart))
	mux.Handle("POST /api/meetings/{id}/finish", protect(meetings.HandleFinish))
	mux.Handle("POST /api/meetings/{id}/cancel", protect(meetings.HandleCancel))
	mux.Handle("POST /api/meetings/{id}/upload-recording", protect(meetings.HandleUploadRecording))
	mux.Handle("POST /api/meetings/{id}/participants", protect(meetings.HandleAddParticipant))

	// Recordings
	mux.Handle("GET "+service.FileURLPrefix+"{key...}", protect(meetings.HandleFile))
}

// Wrap applies the middleware shared by every route.
func Wrap(mux http.Handler) http.Handler {
	return SecurityHeaders(CORS(mux))
}
