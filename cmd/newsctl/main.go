// Package main provides the newsctl CLI for asking news questions from a terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bull/news-rag-server/internal/app"
	"github.com/bull/news-rag-server/internal/config"
	"github.com/bull/news-rag-server/internal/logger"
	"github.com/bull/news-rag-server/internal/markdown"
	"github.com/bull/news-rag-server/internal/rag"
	"github.com/bull/news-rag-server/internal/search"
)

var (
	jsonOutput  bool
	replyFormat string
	threadID    string
)

var rootCmd = &cobra.Command{
	Use:   "newsctl",
	Short: "Ask questions answered from current news",
	Long: `CLI for the news RAG pipeline.

Every command searches Naver news first and falls back to Google (SerpAPI)
when Naver has nothing.

Environment variables:
  UPSTAGE_API_KEY      Upstage key for chat and embeddings (required)
  NAVER_CLIENT_ID      Naver Open API client id (required)
  NAVER_CLIENT_SECRET  Naver Open API client secret (required)
  SERP_API_KEY         SerpAPI key for the Google fallback (required)
  OPENAI_API_KEY       OpenAI key for the assistant command (required)
  VECTOR_STORE         memory or qdrant (default: memory)
  LOG_LEVEL            debug, info, warn, error (default: info)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch replyFormat {
		case "text", "markdown", "html":
			return nil
		}
		return fmt.Errorf("unknown format %q", replyFormat)
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from retrieved news",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var assistantCmd = &cobra.Command{
	Use:   "assistant <question>",
	Short: "Summarize retrieved news with the OpenAI assistant",
	Long: `Runs the assistant over retrieved news and prints its summary.

Pass --thread with the thread id printed by a previous call to continue
that conversation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAssistant,
}

var searchCmd = &cobra.Command{
	Use:   "search <question>",
	Short: "Show the raw search results for a question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().StringVar(&replyFormat, "format", "text", "reply format: text, markdown or html")
	assistantCmd.Flags().StringVar(&threadID, "thread", "", "existing assistant thread id")

	rootCmd.AddCommand(askCmd, assistantCmd, searchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and wires the pipeline. Logs go to stderr so
// stdout only carries answers.
func setup(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logg := logger.NewWithWriter(os.Stderr, cfg.LogLevel, "text")
	return app.Build(ctx, cfg, nil, logg)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	result, err := a.Service.Chat(ctx, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, answerJSON{
			Reply:   result.Reply,
			Source:  result.Source,
			Results: result.Results,
		})
	}
	if !result.Found {
		fmt.Fprintln(out, rag.NoResultsReply)
		return nil
	}
	if err := printReply(out, result.Reply); err != nil {
		return err
	}
	printResults(out, result.Source, result.Results)
	fmt.Fprintf(out, "\nAnswered in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func runAssistant(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Service.Assistant(ctx, strings.Join(args, " "), threadID)
	if err != nil {
		return fmt.Errorf("assistant failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		body := answerJSON{Reply: result.Reply, Source: result.Source, Results: result.Results}
		if result.Found {
			body.Reply = result.Summary.Reply
			body.ThreadID = result.Summary.ThreadID
		}
		return writeJSON(out, body)
	}
	if !result.Found {
		fmt.Fprintln(out, rag.NoResultsReply)
		return nil
	}
	if err := printReply(out, result.Summary.Reply); err != nil {
		return err
	}
	printResults(out, result.Source, result.Results)
	fmt.Fprintf(out, "\nThread: %s\n", result.Summary.ThreadID)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	outcome, err := a.Service.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, answerJSON{Source: outcome.Source, Results: outcome.Results})
	}
	if outcome.Empty() {
		fmt.Fprintln(out, rag.NoResultsReply)
		return nil
	}
	printResults(out, outcome.Source, outcome.Results)
	return nil
}

type answerJSON struct {
	Reply    string                `json:"reply,omitempty"`
	Source   search.Source         `json:"source"`
	Results  []search.SearchResult `json:"results,omitempty"`
	ThreadID string                `json:"thread_id,omitempty"`
}

// printReply writes a model reply in the --format the user asked for.
func printReply(w io.Writer, reply string) error {
	renderer := markdown.NewRenderer()
	switch replyFormat {
	case "markdown":
		fmt.Fprintln(w, reply)
	case "html":
		html, err := renderer.HTML(reply)
		if err != nil {
			return err
		}
		fmt.Fprint(w, html)
	case "text":
		fmt.Fprintln(w, renderer.PlainText(reply))
	default:
		return fmt.Errorf("unknown format %q", replyFormat)
	}
	fmt.Fprintln(w)
	return nil
}

func printResults(w io.Writer, source search.Source, results []search.SearchResult) {
	fmt.Fprintf(w, "Sources (%s):\n", source)
	for i, r := range results {
		fmt.Fprintf(w, "  %d. %s\n     %s\n", i+1, r.Title, r.Link)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
