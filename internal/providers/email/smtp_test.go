package email

import (
	"context"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendTemplateUsesDefaultSubject(t *testing.T) {
	var captured []byte
	var recipients []string
	p := NewSMTP(Config{Host: "smtp.test", Port: 25, From: "no-reply@test"})
	p.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		assert.Equal(t, "smtp.test:25", addr)
		assert.Nil(t, a)
		recipients = to
		captured = msg
		return nil
	}

	err := p.SendTemplate(context.Background(), []string{"jane@example.com"}, "booking_confirmation", TemplateData{
		Fields: map[string]any{
			"customer_name": "Jane",
			"reference":     "01HX",
			"total":         "$144.00",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"jane@example.com"}, recipients)
	assert.Contains(t, string(captured), "Subject: Your cleaning is booked")
	assert.Contains(t, string(captured), "Thanks, Jane!")
	assert.Contains(t, string(captured), "$144.00")
}

func TestSendRequiresRecipients(t *testing.T) {
	p := NewSMTP(Config{Host: "smtp.test", Port: 25})
	assert.ErrorIs(t, p.Send(context.Background(), nil, "s", "b"), ErrNoRecipients)
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := Render("missing", TemplateData{})
	assert.Error(t, err)
}
