package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummaryLabel(t *testing.T) {
	t.Parallel()
	require.Equal(t, "hello", SummaryLabel(MessageTypeText, "hello"))
	require.Equal(t, "📷 Image", SummaryLabel(MessageTypeImage, "ignored"))
	require.Equal(t, "🎤 Voice message", SummaryLabel(MessageTypeVoice, ""))
	require.Equal(t, "📎 File", SummaryLabel(MessageTypeFile, "report.pdf"))
}

func TestValidMessageType(t *testing.T) {
	t.Parallel()
	for _, typ := range []string{MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypeVoice} {
		require.True(t, ValidMessageType(typ))
	}
	require.False(t, ValidMessageType("video"))
	require.False(t, ValidMessageType(""))
}

func TestHasParticipant(t *testing.T) {
	t.Parallel()
	c := Chat{Participants: []string{"u1", "u2"}}
	require.True(t, c.HasParticipant("u1"))
	require.False(t, c.HasParticipant("u3"))
}
