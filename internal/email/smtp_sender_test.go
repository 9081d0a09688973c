package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/travel-approval/internal/application/port"
)

func TestNewSMTPSender_Validation(t *testing.T) {
	_, err := NewSMTPSender(SMTPConfig{FromAddress: "travel@corp.test"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewSMTPSender(SMTPConfig{Host: "smtp.corp.test"}, zap.NewNop())
	assert.Error(t, err)

	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.corp.test", FromAddress: "travel@corp.test"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 587, s.cfg.Port)
}

func TestSMTPSender_BuildMessage(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.corp.test", FromAddress: "travel@corp.test", FromName: "Travel Desk"}, zap.NewNop())
	require.NoError(t, err)

	m, err := s.buildMessage(port.EmailMessage{
		To:       []string{"riya@corp.test", "pm@corp.test"},
		Subject:  "Travel Request 1F1000001 Approved",
		HTMLBody: "<p>ok</p>",
	})
	require.NoError(t, err)
	assert.NotNil(t, m)

	_, err = s.buildMessage(port.EmailMessage{To: []string{"not an address"}})
	assert.Error(t, err)
}

func TestSMTPSender_NoRecipients(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.corp.test", FromAddress: "travel@corp.test"}, zap.NewNop())
	require.NoError(t, err)

	assert.Error(t, s.Send(context.Background(), port.EmailMessage{Subject: "x"}))
}

func TestLogSender_Send(t *testing.T) {
	assert.NoError(t, NewLogSender(zap.NewNop()).Send(context.Background(), port.EmailMessage{To: []string{"a@corp.test"}}))
}
