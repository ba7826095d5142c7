package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSendGridMailerValidates(t *testing.T) {
	_, err := NewSendGridMailer("", "noreply@example.com")
	require.Error(t, err)
	_, err = NewSendGridMailer("key", "")
	require.Error(t, err)

	m, err := NewSendGridMailer("key", "noreply@example.com")
	require.NoError(t, err)
	require.Error(t, m.Send(context.Background(), "", "s", "b"))
}

func TestBuildMessageEscapesHTML(t *testing.T) {
	msg := buildMessage("noreply@example.com", "rider@example.com", "Activate", "<a>link</a>")
	require.Equal(t, "Activate", msg.Subject)
	require.Equal(t, "noreply@example.com", msg.From.Address)
	require.Len(t, msg.Content, 2)
	require.Equal(t, "<pre>&lt;a&gt;link&lt;/a&gt;</pre>", msg.Content[1].Value)
	require.Equal(t, "rider@example.com", msg.Personalizations[0].To[0].Address)
}
