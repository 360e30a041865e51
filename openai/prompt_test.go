package openai

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mosheduminer/lmql/common/logger"
)

func TestTaggedSegmentsNoMarkers(t *testing.T) {
	segments := taggedSegments("tell me a joke")
	require.Len(t, segments, 1)
	require.Nil(t, segments[0].tag)
	require.Equal(t, "tell me a joke", segments[0].text)
}

func TestTaggedSegmentsSystemThenUser(t *testing.T) {
	segments := taggedSegments("<lmql:system/>You are terse.<lmql:user/>Hi")
	require.Len(t, segments, 2)
	require.Equal(t, "system", *segments[0].tag)
	require.Equal(t, "You are terse.", segments[0].text)
	require.Equal(t, "user", *segments[1].tag)
	require.Equal(t, "Hi", segments[1].text)
}

func TestTaggedSegmentsLeadingUntaggedText(t *testing.T) {
	segments := taggedSegments("context first<lmql:user/>question")
	require.Len(t, segments, 2)
	require.Nil(t, segments[0].tag)
	require.Equal(t, "context first", segments[0].text)
	require.Equal(t, "user", *segments[1].tag)
	require.Equal(t, "question", segments[1].text)
}

func TestTaggedSegmentsAdjacentMarkersDropEmptyRun(t *testing.T) {
	segments := taggedSegments("<lmql:system/><lmql:user/>Hi")
	require.Len(t, segments, 1)
	require.Equal(t, "user", *segments[0].tag)
	require.Equal(t, "Hi", segments[0].text)
}

func TestTaggedSegmentsTrailingMarkerKeepsEmptyRun(t *testing.T) {
	segments := taggedSegments("Hi<lmql:assistant/>")
	require.Len(t, segments, 2)
	require.Nil(t, segments[0].tag)
	require.Equal(t, "Hi", segments[0].text)
	require.Equal(t, "assistant", *segments[1].tag)
	require.Equal(t, "", segments[1].text)
}

func TestChatMessagesRoleMapping(t *testing.T) {
	messages := chatMessages("<lmql:system/>Be brief.<lmql:user/>Say hi<lmql:assistant/>Hi!", logger.Logger)
	require.Equal(t, []ChatMessage{
		{Role: "system", Content: "Be brief."},
		{Role: "user", Content: "Say hi"},
		{Role: "assistant", Content: "Hi!"},
	}, messages)
}

func TestChatMessagesUntaggedPromptIsUser(t *testing.T) {
	messages := chatMessages("tell me a joke", logger.Logger)
	require.Equal(t, []ChatMessage{{Role: "user", Content: "tell me a joke"}}, messages)
}

func TestChatMessagesUnknownTagFallsBackToUser(t *testing.T) {
	messages := chatMessages("<lmql:narrator/>Once upon a time", logger.Logger)
	require.Equal(t, []ChatMessage{{Role: "user", Content: "Once upon a time"}}, messages)
}

func TestChatMessagesDropEmptyTrailingSegment(t *testing.T) {
	messages := chatMessages("<lmql:user/>Say hi<lmql:assistant/>", logger.Logger)
	require.Equal(t, []ChatMessage{{Role: "user", Content: "Say hi"}}, messages)
}
