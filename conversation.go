package sqlpilot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const conversationSystemPrompt = `You are a helpful assistant for a data analytics platform.
You answer greetings and questions about what you can do, and you guide
users toward asking specific questions about their data.
Keep responses concise, two or three sentences at most.`

// staticConversationReply answers small talk when no generator is
// available or the generative call fails.
const staticConversationReply = "Hello! Ask me about employees, customers, transactions, game sessions or shifts and I will look up the data for you."

// Responder handles the conversational path: small talk and capability
// questions, answered with a single bounded LLM call.
type Responder struct {
	generator TextGenerator
	logger    *slog.Logger
}

// NewResponder creates a Responder. Generator may be nil; every reply is
// then the static fallback.
func NewResponder(generator TextGenerator, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{generator: generator, logger: logger}
}

// Respond generates a conversational reply. Failures degrade to a static
// reply, never to an error.
func (r *Responder) Respond(ctx context.Context, requestText string, history []Turn) string {
	if r.generator == nil {
		return staticConversationReply
	}
	reply, err := r.generator.Generate(ctx, conversationSystemPrompt, conversationPrompt(requestText, history))
	if err != nil {
		r.logger.Warn("conversation generation failed, using static reply", "error", err)
		return staticConversationReply
	}
	return strings.TrimSpace(reply)
}

func conversationPrompt(requestText string, history []Turn) string {
	if len(history) == 0 {
		return requestText
	}
	var b strings.Builder
	b.WriteString("Recent conversation:\n")
	for _, turn := range history {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}
	b.WriteString("\nuser: ")
	b.WriteString(requestText)
	return b.String()
}
