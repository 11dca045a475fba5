package adapter

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"continuum/backend/internal/session"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const companionSystemPrompt = `You are Continuum, an AI-powered focus companion designed to help students and employees stay productive and focused. Your role is to:

1. Help users maintain focus on their current task
2. Provide contextual assistance based on their work
3. Offer motivational support and encouragement
4. Detect when users might be distracted and gently guide them back
5. Summarize their work and learning progress
6. Extract key concepts and relationships from their activities

Be friendly, supportive, and concise. Use an encouraging tone. Keep responses brief (2-3 sentences) unless the user asks for detailed information.`

const (
	// FocusCheckInErrorFallback is used when a check-in request fails
	FocusCheckInErrorFallback = "Are you still focused on your task? Let me know if you need any help!"
	// MotivationErrorFallback is used when a motivation request fails
	MotivationErrorFallback = "You're doing amazing! Keep up the great work! 🌟"

	chatHistoryTurns  = 5
	chatKnownConcepts = 5
)

var focusCheckIns = []string{
	"Are you still working on your task?",
	"How's your progress going?",
	"Need any help staying focused?",
	"What's your next step?",
}

var motivations = []string{
	"You're doing great! Keep up the excellent work! 🌟",
	"Stay focused - you've got this! 💪",
	"Every step forward is progress. Keep going! 🚀",
	"Your dedication is impressive. Keep pushing! ⭐",
}

// FallbackFocusCheckIn picks a canned check-in for when no LLM is configured
func FallbackFocusCheckIn() string {
	return focusCheckIns[rand.Intn(len(focusCheckIns))]
}

// FallbackMotivation picks a canned encouragement for when no LLM is
// configured
func FallbackMotivation() string {
	return motivations[rand.Intn(len(motivations))]
}

// ChatContext is what the companion knows about the user's session
type ChatContext struct {
	CurrentTask    string
	RecentActivity []string
	KnownConcepts  []string
}

// BuildChatSystemPrompt renders the companion persona followed by the
// session context lines
func BuildChatSystemPrompt(cc ChatContext) string {
	var b strings.Builder
	b.WriteString(companionSystemPrompt)
	b.WriteString("\n\n")

	if cc.CurrentTask != "" {
		fmt.Fprintf(&b, "Current user task: %s\n", cc.CurrentTask)
	}
	if len(cc.RecentActivity) > 0 {
		fmt.Fprintf(&b, "Recent activity: %s\n", strings.Join(cc.RecentActivity, ", "))
	}
	if len(cc.KnownConcepts) > 0 {
		concepts := cc.KnownConcepts
		if len(concepts) > chatKnownConcepts {
			concepts = concepts[:chatKnownConcepts]
		}
		fmt.Fprintf(&b, "Known concepts: %s\n", strings.Join(concepts, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Chat answers a user message in the companion persona. Only the last few
// history turns are sent.
func (a *LLMAdapter) Chat(ctx context.Context, message string, history []session.Message, cc ChatContext) (string, error) {
	if len(history) > chatHistoryTurns {
		history = history[len(history)-chatHistoryTurns:]
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: BuildChatSystemPrompt(cc),
	})
	for _, m := range history {
		role := openai.ChatMessageRoleAssistant
		if m.IsUser() {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	return a.complete(ctx, messages)
}

// FocusCheckIn asks for a one-sentence check-in about task. It never fails;
// on error it returns FocusCheckInErrorFallback.
func (a *LLMAdapter) FocusCheckIn(ctx context.Context, task string) string {
	prompt := "Generate a brief, friendly focus check-in message for a user. "
	if task != "" {
		prompt += fmt.Sprintf("They are working on: %s. ", task)
	}
	prompt += "Keep it short (1 sentence), supportive, and ask if they need help or are still on track."

	reply, err := a.Generate(ctx, companionSystemPrompt, prompt)
	if err != nil || reply == "" {
		a.logger.Warn("Using fallback focus check-in", zap.Error(err))
		return FocusCheckInErrorFallback
	}
	return reply
}

// Motivation asks for a short encouraging message. It never fails; on error
// it returns MotivationErrorFallback.
func (a *LLMAdapter) Motivation(ctx context.Context, about string) string {
	prompt := fmt.Sprintf("Generate a short (1-2 sentences), encouraging motivational message for someone working hard. Context: %s Be uplifting and supportive.", about)

	reply, err := a.Generate(ctx, companionSystemPrompt, prompt)
	if err != nil || reply == "" {
		a.logger.Warn("Using fallback motivation", zap.Error(err))
		return MotivationErrorFallback
	}
	return reply
}
