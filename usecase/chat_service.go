package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/moodlabs/moodchat/domain"
	"github.com/moodlabs/moodchat/utils/log"
)

const (
	// maxHistoryTurns bounds how much conversation context is rendered
	// into the prompt; older turns are silently dropped.
	maxHistoryTurns = 10

	// maxTitleLen bounds generated conversation titles.
	maxTitleLen = 50

	// FallbackErrorReply is returned whenever the remote call fails.
	FallbackErrorReply = "I'm sorry, but I encountered an error while processing your request. Please try again later."

	// FallbackEmptyReply is returned when the remote call succeeds but
	// yields no text, e.g. when the provider's safety layer filtered
	// the response.
	FallbackEmptyReply = "I apologize, but I couldn't generate a response at the moment. Please try again."

	// FallbackTitle is returned when title generation fails or yields
	// no text.
	FallbackTitle = "New Conversation"
)

const titlePromptFormat = `Generate a short, descriptive title (3-6 words) for a conversation that starts with this message: "%s"

The title should capture the main topic or theme. Return only the title, no additional text.`

// ChatService generates mood-conditioned replies and conversation
// titles. All remote failures are contained here: both operations
// always return a usable string and never an error.
type ChatService struct {
	llm     domain.Llm
	timeout time.Duration
}

// NewChatService wires a ChatService to a text-completion provider.
// timeout bounds each remote call; zero means the provider's own
// defaults apply.
func NewChatService(gen domain.Llm, timeout time.Duration) *ChatService {
	return &ChatService{llm: gen, timeout: timeout}
}

// GenerateReply answers message in the persona selected by mood,
// rendering at most the last ten turns of history as context.
//
// The caller always receives a string: genuine model output, or one of
// the two fixed fallback sentences when the remote call fails or is
// filtered. The distinction between the failure classes survives in
// the logs only.
func (s *ChatService) GenerateReply(ctx context.Context, message string, history []domain.ConversationTurn, mood domain.Mood) string {
	prompt := buildReplyPrompt(message, history, mood)

	text, err := s.generate(ctx, prompt)
	if err != nil {
		log.WithCtx(ctx).Error("generating reply",
			zap.String("mood", string(mood)),
			zap.Error(err))
		return FallbackErrorReply
	}

	text = strings.TrimSpace(text)
	if text == "" {
		log.WithCtx(ctx).Warn("empty reply from model", zap.String("mood", string(mood)))
		return FallbackEmptyReply
	}
	return text
}

// GenerateTitle produces a short descriptive title for a conversation
// opened by firstMessage. Quote characters are stripped and the result
// is capped at 50 characters. Never fails: any error or empty result
// yields FallbackTitle.
func (s *ChatService) GenerateTitle(ctx context.Context, firstMessage string) string {
	prompt := fmt.Sprintf(titlePromptFormat, firstMessage)

	text, err := s.generate(ctx, prompt)
	if err != nil {
		log.WithCtx(ctx).Error("generating title", zap.Error(err))
		return FallbackTitle
	}

	title := strings.TrimSpace(text)
	if title == "" {
		log.WithCtx(ctx).Warn("empty title from model")
		return FallbackTitle
	}

	title = strings.NewReplacer(`"`, "", "'", "").Replace(title)
	if runes := []rune(title); len(runes) > maxTitleLen {
		title = string(runes[:maxTitleLen])
	}
	return title
}

func (s *ChatService) generate(ctx context.Context, prompt string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.llm.Generate(ctx, prompt)
}

func buildReplyPrompt(message string, history []domain.ConversationTurn, mood domain.Mood) string {
	system := systemPrompt(mood)

	rendered := renderHistory(history)
	if rendered != "" {
		return fmt.Sprintf("%s\n\nConversation history:\n%s\nUser: %s\nAssistant:", system, rendered, message)
	}
	return fmt.Sprintf("%s\n\nUser: %s\nAssistant:", system, message)
}

// renderHistory renders the last maxHistoryTurns turns, one per line,
// preserving order. Returns "" for empty history.
func renderHistory(history []domain.ConversationTurn) string {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	var b strings.Builder
	for _, turn := range history {
		role := "Assistant"
		if turn.IsUserMessage {
			role = "User"
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteByte('\n')
	}
	return b.String()
}
