package util

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailer_DevModeSkipsSMTP(t *testing.T) {
	mailer := NewMailer(MailConfig{})
	called := false
	mailer.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	require.NoError(t, mailer.SendVerificationCode("a@example.com", "123456"))
	assert.False(t, called)
}

func TestMailer_Send(t *testing.T) {
	mailer := NewMailer(MailConfig{From: "noreply@example.com", Password: "pw"})

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	mailer.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	require.NoError(t, mailer.SendVerificationCode("a@example.com", "654321"))
	assert.Equal(t, "smtp.gmail.com:587", gotAddr)
	assert.Equal(t, []string{"a@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "654321")
	assert.Contains(t, string(gotMsg), "Content-Type: text/html")
}

func TestMailer_SendFailure(t *testing.T) {
	mailer := NewMailer(MailConfig{From: "noreply@example.com", Password: "pw"})
	mailer.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	assert.Error(t, mailer.Send("a@example.com", "subject", "<p>body</p>"))
}
