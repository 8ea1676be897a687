// Package notify sends account notifications to users.
//
// Only one notification exists today: "your password was changed", sent after
// a successful profile update that set a new password. The service depends on
// the Notifier interface; main picks SMTP when SMTP_HOST is configured and the
// log-only notifier otherwise.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/mentorship-platform/internal/config"
	"github.com/sakif/mentorship-platform/internal/model"
)

// Notifier delivers account notifications.
type Notifier interface {
	PasswordChanged(ctx context.Context, user *model.User) error
}

// Message is a plain-text email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// PasswordChangedMessage builds the email sent after a password change.
func PasswordChangedMessage(from string, user *model.User, at time.Time) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\r\n\r\n", user.FirstName)
	fmt.Fprintf(&b, "The password for your mentorship account (%s) was changed on %s.\r\n\r\n",
		user.Email, at.UTC().Format("2 January 2006 at 15:04 MST"))
	b.WriteString("If you did not make this change, contact an administrator immediately.\r\n")

	return Message{
		From:    from,
		To:      user.Email,
		Subject: "Your password has been changed",
		Body:    b.String(),
	}
}

// Bytes renders the message as RFC 5322 text.
func (m Message) Bytes() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(m.Body)
	return []byte(b.String())
}

// LogNotifier records notifications in the log instead of sending them. Used in
// development and whenever SMTP is not configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) PasswordChanged(ctx context.Context, user *model.User) error {
	n.logger.InfoContext(ctx, "password change notification (not sent: SMTP disabled)",
		slog.String("userID", user.ID),
		slog.String("to", user.Email),
	)
	return nil
}

// sendFunc matches smtp.SendMail so tests can capture outgoing mail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends notifications through an SMTP relay.
type SMTPNotifier struct {
	cfg  config.SMTPConfig
	send sendFunc
	now  func() time.Time
}

func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail, now: time.Now}
}

func (n *SMTPNotifier) PasswordChanged(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := PasswordChangedMessage(n.cfg.From, user, n.now())

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	if err := n.send(addr, auth, msg.From, []string{msg.To}, msg.Bytes()); err != nil {
		return fmt.Errorf("notify: sending password change email to %s: %w", user.Email, err)
	}
	return nil
}
