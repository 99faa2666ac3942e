package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// messageData is the input of every HTML template.
type messageData struct {
	SiteName   string
	Name       string
	Heading    string
	Lines      []string
	ActionURL  string
	ActionText string
	Footer     string
}

var messageHTML = template.Must(template.New("message").Parse(messageHTMLTemplate))

func render(to, subject string, data messageData) Email {
	return Email{
		To:       to,
		Subject:  headerValue(subject),
		TextBody: renderText(data),
		HTMLBody: renderHTML(data),
	}
}

func renderText(data messageData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Hi %s,\n\n", data.Name)
	for _, line := range data.Lines {
		buf.WriteString(line + "\n")
	}
	if data.ActionURL != "" {
		fmt.Fprintf(&buf, "\n%s:\n%s\n", data.ActionText, data.ActionURL)
	}
	if data.Footer != "" {
		buf.WriteString("\n" + data.Footer + "\n")
	}
	fmt.Fprintf(&buf, "\n%s\n", data.SiteName)
	return buf.String()
}

func renderHTML(data messageData) string {
	var buf bytes.Buffer
	if err := messageHTML.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
}

const messageHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Heading}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 520px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 28px 32px 20px; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 22px; font-weight: 600; color: #0f766e;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <h2 style="margin: 0 0 16px; font-size: 18px; color: #111827;">{{.Heading}}</h2>
              <p style="margin: 0 0 16px; font-size: 15px; color: #374151;">Hi {{.Name}},</p>
              {{range .Lines}}<p style="margin: 0 0 12px; font-size: 15px; color: #374151; line-height: 1.5;">{{.}}</p>
              {{end}}
              {{if .ActionURL}}
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="margin-top: 24px;">
                <tr>
                  <td align="center">
                    <a href="{{.ActionURL}}" style="display: inline-block; padding: 12px 28px; background-color: #0f766e; color: #ffffff; text-decoration: none; font-size: 15px; border-radius: 6px;">{{.ActionText}}</a>
                  </td>
                </tr>
              </table>
              {{end}}
            </td>
          </tr>
          {{if .Footer}}
          <tr>
            <td style="padding: 20px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">{{.Footer}}</p>
            </td>
          </tr>
          {{end}}
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
