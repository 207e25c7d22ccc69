package challengeinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/clientgate/clientgate/pkg/mailq"
	"github.com/clientgate/clientgate/pkg/notifx"
)

// loginCodeTemplate is the HTML body of the login-code email.
const loginCodeTemplate = `
<p>Hello,</p>
<p>Your sign-in code is:</p>
<p style="font-size:28px;letter-spacing:6px;font-weight:bold">{{.Code}}</p>
<p>The code expires at {{.ExpiresAt}}. If you did not request it, you can ignore this email.</p>
`

const loginCodeTemplateName = "portal_login_code"

type codeMailData struct {
	Code      string
	ExpiresAt string
}

func subjectFor(code string) string {
	return fmt.Sprintf("%s is your sign-in code", code)
}

func textBodyFor(email, code string, expiresAt time.Time) string {
	return fmt.Sprintf("Your sign-in code is %s. It expires at %s.",
		code, expiresAt.Format(time.RFC1123))
}

// QueueNotifier implements challenge.Notifier by enqueuing the code email on
// the outbound-mail queue. The authentication request returns as soon as the
// envelope is accepted; delivery happens in the worker.
type QueueNotifier struct {
	queue     mailq.Enqueuer
	templates *notifx.TemplateRegistry
}

// NewQueueNotifier creates a queue-backed code notifier.
func NewQueueNotifier(queue mailq.Enqueuer) (*QueueNotifier, error) {
	templates := notifx.NewTemplateRegistry()
	if err := templates.Register(loginCodeTemplateName, loginCodeTemplate); err != nil {
		return nil, err
	}
	return &QueueNotifier{queue: queue, templates: templates}, nil
}

// SendCode enqueues the login-code email.
func (n *QueueNotifier) SendCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	html, err := n.templates.Render(loginCodeTemplateName, codeMailData{
		Code:      code,
		ExpiresAt: expiresAt.Format(time.RFC1123),
	})
	if err != nil {
		return err
	}

	_, err = n.queue.Enqueue(ctx, mailq.Envelope{
		To:       email,
		Subject:  subjectFor(code),
		TextBody: textBodyFor(email, code, expiresAt),
		HTMLBody: html,
	})
	return err
}

// DirectNotifier implements challenge.Notifier by sending through notifx
// inline. Used when MAIL_SYNC is set.
type DirectNotifier struct {
	mailer *notifx.Client
	from   string
}

// NewDirectNotifier creates an inline code notifier.
func NewDirectNotifier(mailer *notifx.Client, from string) (*DirectNotifier, error) {
	if err := mailer.RegisterTemplate(loginCodeTemplateName, loginCodeTemplate); err != nil {
		return nil, err
	}
	return &DirectNotifier{mailer: mailer, from: from}, nil
}

// SendCode sends the login-code email synchronously.
func (n *DirectNotifier) SendCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	return n.mailer.SendTemplatedEmail(ctx, loginCodeTemplateName, codeMailData{
		Code:      code,
		ExpiresAt: expiresAt.Format(time.RFC1123),
	}, notifx.EmailMessage{
		From:     n.from,
		To:       []string{email},
		Subject:  subjectFor(code),
		TextBody: textBodyFor(email, code, expiresAt),
	})
}
