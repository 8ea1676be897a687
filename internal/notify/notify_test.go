package notify

import (
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/mentorship-platform/internal/config"
	"github.com/sakif/mentorship-platform/internal/model"
)

var bonny = &model.User{ID: "u1", FirstName: "Bonny", Surname: "Simmons", Email: "bsimmons@gmail.ac.uk"}

func TestPasswordChangedMessage(t *testing.T) {
	at := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	msg := PasswordChangedMessage("noreply@example.com", bonny, at)

	assert.Equal(t, "bsimmons@gmail.ac.uk", msg.To)
	assert.Contains(t, msg.Body, "Hello Bonny")
	assert.Contains(t, msg.Body, "4 March 2026 at 10:30 UTC")

	raw := string(msg.Bytes())
	assert.True(t, strings.HasPrefix(raw, "From: noreply@example.com\r\n"))
	assert.Contains(t, raw, "Subject: Your password has been changed\r\n")
	assert.Contains(t, raw, "\r\n\r\nHello Bonny")
}

func TestSMTPNotifier_Sends(t *testing.T) {
	n := NewSMTPNotifier(config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     2525,
		Username: "mailer",
		Password: "secret",
		From:     "noreply@example.com",
	})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotAuth smtp.Auth
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo = addr, a, from, to
		return nil
	}

	require.NoError(t, n.PasswordChanged(context.Background(), bonny))
	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"bsimmons@gmail.ac.uk"}, gotTo)
}

func TestSMTPNotifier_NoAuthWithoutUsername(t *testing.T) {
	n := NewSMTPNotifier(config.SMTPConfig{Host: "localhost", Port: 25, From: "noreply@example.com"})

	var gotAuth smtp.Auth = smtp.PlainAuth("", "x", "y", "z")
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAuth = a
		return nil
	}

	require.NoError(t, n.PasswordChanged(context.Background(), bonny))
	assert.Nil(t, gotAuth)
}

func TestSMTPNotifier_WrapsSendError(t *testing.T) {
	n := NewSMTPNotifier(config.SMTPConfig{Host: "localhost", Port: 25, From: "noreply@example.com"})
	relayDown := errors.New("connection refused")
	n.send = func(string, smtp.Auth, string, []string, []byte) error { return relayDown }

	err := n.PasswordChanged(context.Background(), bonny)
	assert.ErrorIs(t, err, relayDown)
}

func TestLogNotifier(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	assert.NoError(t, NewLogNotifier(logger).PasswordChanged(context.Background(), bonny))
}
