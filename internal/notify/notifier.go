package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mindmeet/mindmeet/internal/domain"
)

const siteName = "MindMeet"

// Notifier implements domain.Notifier by rendering messages and handing
// them to a Sender.
type Notifier struct {
	sender  Sender
	baseURL string
}

var _ domain.Notifier = (*Notifier)(nil)

// New creates a Notifier. baseURL is used to build links back to the app.
func New(sender Sender, baseURL string) *Notifier {
	return &Notifier{sender: sender, baseURL: strings.TrimRight(baseURL, "/")}
}

func (n *Notifier) Welcome(ctx context.Context, user *domain.User) error {
	return n.sender.Send(ctx, render(user.Email, "Welcome to "+siteName, messageData{
		SiteName: siteName,
		Name:     user.FullName,
		Heading:  "Your account is ready",
		Lines: []string{
			"Thanks for signing up. You can now schedule meetings, invite participants and upload recordings for transcription.",
		},
		ActionURL:  n.baseURL + "/",
		ActionText: "Open " + siteName,
	}))
}

func (n *Notifier) PasswordReset(ctx context.Context, user *domain.User, resetToken string) error {
	link := n.baseURL + "/reset-password?token=" + url.QueryEscape(resetToken)
	return n.sender.Send(ctx, render(user.Email, "Reset your "+siteName+" password", messageData{
		SiteName: siteName,
		Name:     user.FullName,
		Heading:  "Password reset",
		Lines: []string{
			"We received a request to reset your password.",
			"This link expires in 1 hour.",
		},
		ActionURL:  link,
		ActionText: "Choose a new password",
		Footer:     "If you did not request a password reset, you can safely ignore this email.",
	}))
}

// MeetingCreated tells every participant about a new meeting.
func (n *Notifier) MeetingCreated(ctx context.Context, m *domain.Meeting) error {
	return n.toParticipants(ctx, m, "Invitation: "+m.Title, func(p domain.UserSummary) messageData {
		return messageData{
			SiteName: siteName,
			Name:     p.FullName,
			Heading:  "You have been invited to a meeting",
			Lines: []string{
				fmt.Sprintf("%s invited you to %q.", m.Organizer.FullName, m.Title),
				"Starts: " + formatTime(m.StartTime),
			},
			ActionURL:  n.meetingURL(m.ID),
			ActionText: "View meeting",
		}
	})
}

// MeetingStarted tells every participant the meeting is in progress.
func (n *Notifier) MeetingStarted(ctx context.Context, m *domain.Meeting) error {
	return n.toParticipants(ctx, m, "Started: "+m.Title, func(p domain.UserSummary) messageData {
		return messageData{
			SiteName:   siteName,
			Name:       p.FullName,
			Heading:    "Your meeting has started",
			Lines:      []string{fmt.Sprintf("%q is now in progress.", m.Title)},
			ActionURL:  n.meetingURL(m.ID),
			ActionText: "Join meeting",
		}
	})
}

func (n *Notifier) ParticipantAdded(ctx context.Context, m *domain.Meeting, participant *domain.User) error {
	return n.sender.Send(ctx, render(participant.Email, "Added to: "+m.Title, messageData{
		SiteName: siteName,
		Name:     participant.FullName,
		Heading:  "You were added to a meeting",
		Lines: []string{
			fmt.Sprintf("%s added you to %q.", m.Organizer.FullName, m.Title),
			"Starts: " + formatTime(m.StartTime),
		},
		ActionURL:  n.meetingURL(m.ID),
		ActionText: "View meeting",
	}))
}

// toParticipants sends one message per participant and joins the failures.
func (n *Notifier) toParticipants(ctx context.Context, m *domain.Meeting, subject string, build func(domain.UserSummary) messageData) error {
	var errs []error
	for _, p := range m.Participants {
		if err := n.sender.Send(ctx, render(p.Email, subject, build(p))); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *Notifier) meetingURL(id int64) string {
	return n.baseURL + "/meetings/" + strconv.FormatInt(id, 10)
}
