package adapter

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"continuum/backend/internal/session"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat_BuildsConversation(t *testing.T) {
	client := &mockChatClient{replies: []string{"Take a short break."}}
	a := newTestAdapter(client)

	var history []session.Message
	for i := 0; i < 7; i++ {
		typ := session.MessageTypeUser
		if i%2 == 1 {
			typ = session.MessageTypeAI
		}
		history = append(history, session.Message{Type: typ, Text: fmt.Sprintf("turn %d", i)})
	}

	reply, err := a.Chat(context.Background(), "I'm tired", history, ChatContext{
		CurrentTask:    "thesis",
		RecentActivity: []string{"wrote intro"},
		KnownConcepts:  []string{"a", "b", "c", "d", "e", "f"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Take a short break.", reply)

	msgs := client.lastReq.Messages
	require.Len(t, msgs, 7)

	system := msgs[0]
	assert.Equal(t, openai.ChatMessageRoleSystem, system.Role)
	assert.Contains(t, system.Content, "You are Continuum")
	assert.Contains(t, system.Content, "Current user task: thesis")
	assert.Contains(t, system.Content, "Recent activity: wrote intro")
	assert.Contains(t, system.Content, "Known concepts: a, b, c, d, e")
	assert.NotContains(t, system.Content, ", f")

	// Only the last five turns are sent, starting at turn 2
	assert.Equal(t, "turn 2", msgs[1].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, msgs[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, msgs[2].Role)
	assert.Equal(t, "turn 6", msgs[5].Content)

	assert.Equal(t, openai.ChatMessageRoleUser, msgs[6].Role)
	assert.Equal(t, "I'm tired", msgs[6].Content)
}

func TestChat_ReturnsError(t *testing.T) {
	boom := errors.New("boom")
	a := newTestAdapter(&mockChatClient{errs: []error{boom, boom, boom}})

	_, err := a.Chat(context.Background(), "hi", nil, ChatContext{})
	assert.ErrorIs(t, err, boom)
}

func TestBuildChatSystemPrompt_Empty(t *testing.T) {
	prompt := BuildChatSystemPrompt(ChatContext{})
	assert.Equal(t, companionSystemPrompt, prompt)
}

func TestFocusCheckIn(t *testing.T) {
	client := &mockChatClient{replies: []string{"Still on the thesis?"}}
	a := newTestAdapter(client)

	assert.Equal(t, "Still on the thesis?", a.FocusCheckIn(context.Background(), "thesis"))
	assert.Contains(t, client.lastReq.Messages[1].Content, "They are working on: thesis.")

	boom := errors.New("boom")
	failing := newTestAdapter(&mockChatClient{errs: []error{boom, boom, boom}})
	assert.Equal(t, FocusCheckInErrorFallback, failing.FocusCheckIn(context.Background(), ""))
}

func TestMotivation(t *testing.T) {
	client := &mockChatClient{replies: []string{"You've got this."}}
	a := newTestAdapter(client)

	assert.Equal(t, "You've got this.", a.Motivation(context.Background(), "final exams"))
	assert.Contains(t, client.lastReq.Messages[1].Content, "Context: final exams")

	failing := newTestAdapter(&mockChatClient{replies: []string{""}})
	assert.Equal(t, MotivationErrorFallback, failing.Motivation(context.Background(), ""))
}

func TestCannedPrompts(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.Contains(t, focusCheckIns, FallbackFocusCheckIn())
		assert.Contains(t, motivations, FallbackMotivation())
	}
}
