package handler_test

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/mindmeet/mindmeet/internal/handler"
)

func TestAuth_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"fullName": "Ada Lovelace",
		"email":    "ada@example.com",
		"password": "password123",
	})
	expectStatus(t, resp, http.StatusCreated)
	reg := decode[handler.AuthResponse](t, resp)
	if !reg.Success || reg.Token == nil || *reg.Token == "" {
		t.Fatalf("expected successful registration with token, got %+v", reg)
	}
	if reg.UserID == nil || reg.FullName != "Ada Lovelace" || reg.Email != "ada@example.com" {
		t.Fatalf("unexpected user fields: %+v", reg)
	}
	if env.mail.count() != 1 {
		t.Fatalf("expected welcome email, got %d emails", env.mail.count())
	}

	resp = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "password123",
	})
	expectStatus(t, resp, http.StatusOK)
	login := decode[handler.AuthResponse](t, resp)
	if !login.Success || login.Token == nil {
		t.Fatalf("expected token, got %+v", login)
	}

	resp = env.do(t, http.MethodGet, "/api/auth/me", *login.Token, nil)
	expectStatus(t, resp, http.StatusOK)
	me := decode[handler.UserDTO](t, resp)
	if me.Email != "ada@example.com" || len(me.Roles) != 1 || me.Roles[0] != "USER" {
		t.Fatalf("unexpected /me response: %+v", me)
	}
}

func TestAuth_RegisterFailures(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Taken", "taken@example.com")

	tests := []struct {
		name string
		body map[string]string
	}{
		{"duplicate email", map[string]string{"fullName": "Other", "email": "taken@example.com", "password": "password123"}},
		{"weak password", map[string]string{"fullName": "Weak", "email": "weak@example.com", "password": "short"}},
		{"missing name", map[string]string{"email": "noname@example.com", "password": "password123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			expectStatus(t, resp, http.StatusBadRequest)
			body := decode[handler.AuthResponse](t, resp)
			if body.Success || body.Token != nil {
				t.Fatalf("expected failure without token, got %+v", body)
			}
			if body.Message == "" {
				t.Fatal("expected an error message")
			}
		})
	}
}

func TestAuth_LoginFailures(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Grace", "grace@example.com")

	tests := []struct {
		name  string
		email string
		pass  string
	}{
		{"wrong password", "grace@example.com", "wrongpassword"},
		{"unknown email", "nobody@example.com", "password123"},
		{"email case differs", "Grace@example.com", "password123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
				"email": tt.email, "password": tt.pass,
			})
			expectStatus(t, resp, http.StatusUnauthorized)
			body := decode[handler.AuthResponse](t, resp)
			if body.Success || body.Token != nil {
				t.Fatalf("expected failure without token, got %+v", body)
			}
		})
	}
}

var resetTokenPattern = regexp.MustCompile(`token=([A-Za-z0-9_.\-]+)`)

func TestAuth_ForgotAndResetPassword(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Linus", "linus@example.com")

	resp, err := http.PostForm(env.srv.URL+"/api/auth/forgot-password", url.Values{"email": {"nobody@example.com"}})
	if err != nil {
		t.Fatalf("POST forgot-password: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown email: expected 404, got %d", resp.StatusCode)
	}

	resp, err = http.Post(env.srv.URL+"/api/auth/forgot-password?email=linus@example.com", "", nil)
	if err != nil {
		t.Fatalf("POST forgot-password: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("known email: expected 200, got %d", resp.StatusCode)
	}

	msg := env.mail.last()
	if msg.To != "linus@example.com" {
		t.Fatalf("expected reset email to linus, got %q", msg.To)
	}
	m := resetTokenPattern.FindStringSubmatch(msg.TextBody)
	if m == nil {
		t.Fatalf("no reset token in email body: %s", msg.TextBody)
	}
	resetToken := m[1]

	// A reset token is not an access token.
	resp = env.do(t, http.MethodGet, "/api/meetings", resetToken, nil)
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = env.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token": resetToken, "newPassword": "short",
	})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = env.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token": "not-a-token", "newPassword": "newpassword1",
	})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = env.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token": resetToken, "newPassword": "newpassword1",
	})
	expectStatus(t, resp, http.StatusOK)

	resp = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "linus@example.com", "password": "newpassword1",
	})
	expectStatus(t, resp, http.StatusOK)
}

func TestAuth_ValidateToken(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "Valid", "valid@example.com")

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"valid bearer", "Bearer " + token, true},
		{"garbage", "Bearer nope", false},
		{"missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/auth/validate-token", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("GET validate-token: %v", err)
			}
			defer resp.Body.Close()

			expectStatus(t, resp, http.StatusOK)
			if got := decode[bool](t, resp); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAuth_SocialLoginUnsupported(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.PostForm(env.srv.URL+"/api/auth/social-login/google", url.Values{"token": {"abc"}})
	if err != nil {
		t.Fatalf("POST social-login: %v", err)
	}
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusUnauthorized)
	body := decode[handler.AuthResponse](t, resp)
	if body.Success || !strings.Contains(strings.ToLower(body.Message), "social") {
		t.Fatalf("unexpected body: %+v", body)
	}
}
