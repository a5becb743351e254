package mailer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/approvaldesk/internal/model"
)

func TestNewRequiresHostAndSender(t *testing.T) {
	_, err := New(model.MailConfig{Host: "smtp.example.com"}, "")
	assert.Error(t, err)

	_, err = New(model.MailConfig{From: "desk@example.com"}, "")
	assert.Error(t, err)

	m, err := New(model.MailConfig{Host: "smtp.example.com", From: "desk@example.com"}, "secret")
	require.NoError(t, err)
	assert.Equal(t, 587, m.dialer.Port)
}

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("desk@example.com", "budi@example.com", "Laporan Disetujui", "Laporan q1.xlsx telah disetujui.")

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "From: desk@example.com")
	assert.Contains(t, out, "To: budi@example.com")
	assert.Contains(t, out, "Subject: Laporan Disetujui")
	assert.Contains(t, out, "q1.xlsx")
}

func TestSendHonoursCancelledContext(t *testing.T) {
	m, err := New(model.MailConfig{Host: "smtp.example.com", From: "desk@example.com"}, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, "a@example.com", "s", "b"), context.Canceled)
}
