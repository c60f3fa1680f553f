package domain

import "context"

// Llm abstracts any text-completion provider.
type Llm interface {
	// Generate takes a fully composed prompt and returns the model's
	// raw reply. Blocks until the provider answers or ctx is cancelled.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ConversationTurn is one caller-supplied message of a conversation.
// The service reads a bounded suffix of these and never stores or
// mutates them.
type ConversationTurn struct {
	IsUserMessage bool   `json:"is_user_message"`
	Content       string `json:"content"`
}

// Mood selects a fixed system-prompt persona for reply generation.
// Unrecognized values fall back to MoodDefault.
type Mood string

const (
	MoodDefault      Mood = "default"
	MoodFunny        Mood = "funny"
	MoodRoasting     Mood = "roasting"
	MoodPrecise      Mood = "precise"
	MoodIntellectual Mood = "intellectual"
)
