package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodlabs/moodchat/domain"
	"github.com/moodlabs/moodchat/usecase"
)

const (
	fallbackErrorReply = "I'm sorry, but I encountered an error while processing your request. Please try again later."
	fallbackEmptyReply = "I apologize, but I couldn't generate a response at the moment. Please try again."
	fallbackTitle      = "New Conversation"
)

// fakeLlm records every prompt it receives and answers with a canned
// reply or error.
type fakeLlm struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeLlm) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeLlm) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// blockingLlm waits for ctx cancellation before answering.
type blockingLlm struct{}

func (blockingLlm) Generate(ctx context.Context, prompt string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestGenerateReplyMoodSelection(t *testing.T) {
	tests := []struct {
		name   string
		mood   domain.Mood
		marker string
	}{
		{"default", domain.MoodDefault, "helpful, friendly, and balanced AI assistant"},
		{"funny", domain.MoodFunny, "hilarious AI assistant with a great sense of humor"},
		{"roasting", domain.MoodRoasting, "talent for playful roasting"},
		{"precise", domain.MoodPrecise, "precise, efficient AI assistant"},
		{"intellectual", domain.MoodIntellectual, "highly intellectual AI with deep knowledge"},
		{"unknown falls back to default", domain.Mood("grumpy"), "helpful, friendly, and balanced AI assistant"},
		{"empty falls back to default", domain.Mood(""), "helpful, friendly, and balanced AI assistant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLlm{reply: "ok"}
			svc := usecase.NewChatService(llm, 0)

			svc.GenerateReply(context.Background(), "Hi", nil, tt.mood)

			prompt := llm.lastPrompt()
			assert.Contains(t, prompt, tt.marker)
			assert.True(t, strings.HasPrefix(prompt, "You are "), "persona must lead the prompt")
		})
	}
}

func TestGenerateReplyPromptComposition(t *testing.T) {
	llm := &fakeLlm{reply: "ok"}
	svc := usecase.NewChatService(llm, 0)

	svc.GenerateReply(context.Background(), "Hi", nil, domain.MoodDefault)

	prompt := llm.lastPrompt()
	assert.True(t, strings.HasSuffix(prompt, "User: Hi\nAssistant:"), "prompt must end with the user turn, got %q", prompt)
	assert.NotContains(t, prompt, "Conversation history:")
}

func TestGenerateReplyHistoryRendering(t *testing.T) {
	llm := &fakeLlm{reply: "ok"}
	svc := usecase.NewChatService(llm, 0)

	history := []domain.ConversationTurn{
		{IsUserMessage: true, Content: "A"},
		{IsUserMessage: false, Content: "B"},
	}
	svc.GenerateReply(context.Background(), "Hello", history, domain.MoodDefault)

	prompt := llm.lastPrompt()
	assert.Contains(t, prompt, "Conversation history:\nUser: A\nAssistant: B\n")
	assert.True(t, strings.HasSuffix(prompt, "User: A\nAssistant: B\n\nUser: Hello\nAssistant:"), "got %q", prompt)
}

func TestGenerateReplyHistoryTruncation(t *testing.T) {
	llm := &fakeLlm{reply: "ok"}
	svc := usecase.NewChatService(llm, 0)

	var history []domain.ConversationTurn
	for i := 0; i < 15; i++ {
		history = append(history, domain.ConversationTurn{
			IsUserMessage: i%2 == 0,
			Content:       fmt.Sprintf("msg-%02d", i),
		})
	}
	svc.GenerateReply(context.Background(), "next", history, domain.MoodDefault)

	prompt := llm.lastPrompt()
	for i := 0; i < 5; i++ {
		assert.NotContains(t, prompt, fmt.Sprintf("msg-%02d", i))
	}
	for i := 5; i < 15; i++ {
		assert.Contains(t, prompt, fmt.Sprintf("msg-%02d", i))
	}
	// Relative order of the surviving turns is preserved
	for i := 5; i < 14; i++ {
		first := strings.Index(prompt, fmt.Sprintf("msg-%02d", i))
		second := strings.Index(prompt, fmt.Sprintf("msg-%02d", i+1))
		assert.Less(t, first, second)
	}
}

func TestGenerateReplyTrimsWhitespace(t *testing.T) {
	llm := &fakeLlm{reply: "  Hello there!  \n"}
	svc := usecase.NewChatService(llm, 0)

	reply := svc.GenerateReply(context.Background(), "Hi", nil, domain.MoodDefault)
	assert.Equal(t, "Hello there!", reply)
}

func TestGenerateReplyErrorFallback(t *testing.T) {
	llm := &fakeLlm{err: errors.New("quota exceeded")}
	svc := usecase.NewChatService(llm, 0)

	reply := svc.GenerateReply(context.Background(), "Hi", nil, domain.MoodDefault)
	assert.Equal(t, fallbackErrorReply, reply)
}

func TestGenerateReplyEmptyFallback(t *testing.T) {
	for _, raw := range []string{"", "   \n\t"} {
		llm := &fakeLlm{reply: raw}
		svc := usecase.NewChatService(llm, 0)

		reply := svc.GenerateReply(context.Background(), "Hi", nil, domain.MoodDefault)
		assert.Equal(t, fallbackEmptyReply, reply)
	}
}

func TestGenerateReplyTimeoutIsAnErrorFallback(t *testing.T) {
	svc := usecase.NewChatService(blockingLlm{}, 10*time.Millisecond)

	reply := svc.GenerateReply(context.Background(), "Hi", nil, domain.MoodDefault)
	assert.Equal(t, fallbackErrorReply, reply)
}

func TestGenerateTitle(t *testing.T) {
	llm := &fakeLlm{reply: "\"Go Concurrency Patterns\"\n"}
	svc := usecase.NewChatService(llm, 0)

	title := svc.GenerateTitle(context.Background(), "how do goroutines work?")
	assert.Equal(t, "Go Concurrency Patterns", title)

	prompt := llm.lastPrompt()
	assert.Contains(t, prompt, "how do goroutines work?")
	assert.Contains(t, prompt, "3-6 words")
}

func TestGenerateTitleStripsQuotesAndTruncates(t *testing.T) {
	llm := &fakeLlm{reply: `"A 'very' long title that keeps going on and on and on well past fifty characters"`}
	svc := usecase.NewChatService(llm, 0)

	title := svc.GenerateTitle(context.Background(), "hello")
	require.LessOrEqual(t, len([]rune(title)), 50)
	assert.NotContains(t, title, `"`)
	assert.NotContains(t, title, "'")
}

func TestGenerateTitleFallbacks(t *testing.T) {
	t.Run("remote error", func(t *testing.T) {
		llm := &fakeLlm{err: errors.New("boom")}
		svc := usecase.NewChatService(llm, 0)
		assert.Equal(t, fallbackTitle, svc.GenerateTitle(context.Background(), "hello"))
	})

	t.Run("empty result", func(t *testing.T) {
		llm := &fakeLlm{reply: "  "}
		svc := usecase.NewChatService(llm, 0)
		assert.Equal(t, fallbackTitle, svc.GenerateTitle(context.Background(), "hello"))
	})
}
