// Package answer assembles retrieved news context into prompts and generates
// conversational replies.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/bull/news-rag-server/internal/vectorstore"
)

const chatTemplate = `You are a friendly and knowledgeable AI assistant that helps answer user questions using real-time news information.

- Use the provided 'Context' (top-k search results) to find relevant details.
- If the context doesn't contain enough information or you're unsure, express that politely.
- Always explain in a clear, conversational style.

Question: {question}

Context:
{context}

Now provide a helpful, concise, and chatty answer to the user's question:`

const assistantTemplate = "You are a friendly and knowledgeable AI assistant that helps answer user questions using real-time news information.\n" +
	"\n" +
	"- Use the provided 'Context' (top-k search results) to find relevant details.\n" +
	"- If the context doesn't contain enough information or you're unsure, express that politely.\n" +
	"- Always explain in a clear, conversational style.\n" +
	"\n" +
	"user`s original Question: {question}\n" +
	"\n" +
	"news Context:\n" +
	"{context}\n" +
	"\n" +
	"Now provide a helpful, concise, and chatty answer to the user's question:"

// Completer is the chat capability the generator needs.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Generator produces grounded answers with one chat completion.
type Generator struct {
	chat Completer
}

// NewGenerator creates an answer generator backed by chat.
func NewGenerator(chat Completer) *Generator {
	return &Generator{chat: chat}
}

// Generate answers question from the retrieved chunks. The reply is returned
// whole; colons inside the answer are kept.
func (g *Generator) Generate(ctx context.Context, question string, chunks []vectorstore.ScoredChunk) (string, error) {
	prompt := render(chatTemplate, question, BuildContext(chunks))

	reply, err := g.chat.Complete(ctx, "", prompt)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// BuildContext lists chunks in retrieval order as Title/Link/Description blocks.
func BuildContext(chunks []vectorstore.ScoredChunk) string {
	var b strings.Builder
	for _, c := range chunks {
		fmt.Fprintf(&b, "Title: %s\nLink: %s\nDescription: %s\n\n", c.Title, c.Link, c.Content)
	}
	return b.String()
}

// RenderAssistantInstructions fills the assistant-path instructions with the
// user's question and the news context.
func RenderAssistantInstructions(question, newsContext string) string {
	return render(assistantTemplate, question, newsContext)
}

func render(template, question, newsContext string) string {
	return strings.NewReplacer("{question}", question, "{context}", newsContext).Replace(template)
}
