package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bull/news-rag-server/internal/vectorstore"
)

type fakeChat struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeChat) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func sampleChunks() []vectorstore.ScoredChunk {
	return []vectorstore.ScoredChunk{
		{Chunk: vectorstore.Chunk{Content: "Votes are being counted.", Title: "Election", Link: "https://news.example/1"}, Score: 0.9},
		{Chunk: vectorstore.Chunk{Content: "Turnout was high.", Title: "Turnout", Link: "https://news.example/2"}, Score: 0.8},
	}
}

// TestBuildContext verifies the block layout and ordering.
func TestBuildContext(t *testing.T) {
	got := BuildContext(sampleChunks())
	want := "Title: Election\nLink: https://news.example/1\nDescription: Votes are being counted.\n\n" +
		"Title: Turnout\nLink: https://news.example/2\nDescription: Turnout was high.\n\n"

	if got != want {
		t.Errorf("BuildContext() =\n%q\nwant\n%q", got, want)
	}

	if BuildContext(nil) != "" {
		t.Error("Expected empty context for no chunks")
	}
}

// TestGenerate verifies the prompt carries question and context.
func TestGenerate(t *testing.T) {
	chat := &fakeChat{reply: "  Votes are still being counted.  "}
	g := NewGenerator(chat)

	reply, err := g.Generate(context.Background(), "What happened with the election today?", sampleChunks())
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if reply != "Votes are still being counted." {
		t.Errorf("Expected trimmed reply, got %q", reply)
	}

	if len(chat.prompts) != 1 {
		t.Fatalf("Expected 1 chat call, got %d", len(chat.prompts))
	}
	prompt := chat.prompts[0]
	if !strings.Contains(prompt, "Question: What happened with the election today?") {
		t.Errorf("Prompt missing question: %q", prompt)
	}
	if !strings.Contains(prompt, "Context:\nTitle: Election\n") {
		t.Errorf("Prompt missing context: %q", prompt)
	}
	if strings.Contains(prompt, "{question}") || strings.Contains(prompt, "{context}") {
		t.Errorf("Prompt has unrendered placeholders: %q", prompt)
	}
}

// TestGenerate_KeepsColons verifies replies are not cut at the last colon.
func TestGenerate_KeepsColons(t *testing.T) {
	chat := &fakeChat{reply: "Here is the summary: turnout was 70% at 10:30."}
	g := NewGenerator(chat)

	reply, err := g.Generate(context.Background(), "turnout?", sampleChunks())
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if reply != "Here is the summary: turnout was 70% at 10:30." {
		t.Errorf("Reply was altered: %q", reply)
	}
}

// TestGenerate_Error verifies chat errors are wrapped and returned.
func TestGenerate_Error(t *testing.T) {
	boom := errors.New("upstream 500")
	g := NewGenerator(&fakeChat{err: boom})

	_, err := g.Generate(context.Background(), "q", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Expected wrapped upstream error, got %v", err)
	}
}

// TestRenderAssistantInstructions verifies the assistant template is rendered.
func TestRenderAssistantInstructions(t *testing.T) {
	got := RenderAssistantInstructions("Who won?", "Title: Election\n")

	if !strings.Contains(got, "user`s original Question: Who won?") {
		t.Errorf("Missing question line: %q", got)
	}
	if !strings.Contains(got, "news Context:\nTitle: Election\n") {
		t.Errorf("Missing context block: %q", got)
	}
}
