package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultModel is the assistant model.
	DefaultModel = "gpt-4o"
	// DefaultRunTimeout bounds how long a run is polled.
	DefaultRunTimeout = 60 * time.Second

	assistantName = "news-assistant"
)

var (
	ErrRunTimeout       = errors.New("assistant run timed out")
	ErrRunFailed        = errors.New("assistant run did not complete")
	ErrNoAssistantReply = errors.New("thread has no assistant reply")
)

// Run statuses reported by the remote service.
const (
	StatusQueued         = "queued"
	StatusInProgress     = "in_progress"
	StatusRequiresAction = "requires_action"
	StatusCancelling     = "cancelling"
	StatusCancelled      = "cancelled"
	StatusFailed         = "failed"
	StatusCompleted      = "completed"
	StatusIncomplete     = "incomplete"
	StatusExpired        = "expired"
)

// Summary is the assistant's reply and the thread it lives in.
type Summary struct {
	Reply    string `json:"reply"`
	ThreadID string `json:"thread_id"`
}

// Config tunes the manager.
type Config struct {
	Model      string
	RunTimeout time.Duration
	// PollInterval and MaxPollInterval shape the run status backoff.
	PollInterval    time.Duration
	MaxPollInterval time.Duration
}

// Manager drives one assistant exchange per call.
type Manager struct {
	api    API
	cfg    Config
	logger *slog.Logger
}

// NewManager creates a manager. Zero config fields take defaults.
func NewManager(api API, cfg Config, logger *slog.Logger) *Manager {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.MaxPollInterval <= 0 {
		cfg.MaxPollInterval = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{api: api, cfg: cfg, logger: logger}
}

// Run asks question in threadID, or in a new thread when threadID is empty,
// with instructions as the assistant's system prompt. It waits for the run
// to finish and returns the newest assistant reply.
func (m *Manager) Run(ctx context.Context, question, threadID, instructions string) (Summary, error) {
	start := time.Now()

	assistantID, err := m.api.CreateAssistant(ctx, assistantName, m.cfg.Model, instructions)
	if err != nil {
		return Summary{}, err
	}
	defer m.cleanup(assistantID)

	if threadID != "" {
		if err := m.api.AddMessage(ctx, threadID, question); err != nil {
			return Summary{}, err
		}
	} else {
		threadID, err = m.api.CreateThread(ctx, question)
		if err != nil {
			return Summary{}, err
		}
	}

	run, err := m.api.CreateRun(ctx, threadID, assistantID)
	if err != nil {
		return Summary{}, err
	}

	if err := m.waitForRun(ctx, threadID, run); err != nil {
		return Summary{}, err
	}

	reply, ok, err := m.api.LatestAssistantReply(ctx, threadID, run.ID)
	if err != nil {
		return Summary{}, err
	}
	if !ok {
		return Summary{}, fmt.Errorf("%w: thread %s", ErrNoAssistantReply, threadID)
	}

	m.logger.Info("Assistant run complete",
		"thread_id", threadID,
		"run_id", run.ID,
		"duration", time.Since(start),
	)
	return Summary{Reply: reply, ThreadID: threadID}, nil
}

// errRunPending marks a run that has not reached a terminal status yet.
var errRunPending = errors.New("run pending")

// waitForRun polls the run with exponential backoff until it is terminal or
// the run timeout passes. Transport errors end the wait immediately.
func (m *Manager) waitForRun(ctx context.Context, threadID string, run Run) error {
	if done, err := checkStatus(run); done {
		return err
	}

	pollCtx, cancel := context.WithTimeout(ctx, m.cfg.RunTimeout)
	defer cancel()

	poll := backoff.NewExponentialBackOff()
	poll.InitialInterval = m.cfg.PollInterval
	poll.MaxInterval = m.cfg.MaxPollInterval
	poll.MaxElapsedTime = 0

	err := backoff.Retry(func() error {
		current, err := m.api.GetRun(pollCtx, threadID, run.ID)
		if err != nil {
			return backoff.Permanent(err)
		}
		m.logger.Debug("Polled assistant run", "run_id", run.ID, "status", current.Status)
		if done, err := checkStatus(current); done {
			return backoff.Permanent(err)
		}
		return errRunPending
	}, backoff.WithContext(poll, pollCtx))

	if err != nil && pollCtx.Err() != nil {
		// An active run blocks new messages on the thread.
		m.cancelRun(threadID, run.ID)

		// The poll deadline expired while the caller is still waiting.
		if ctx.Err() == nil {
			return fmt.Errorf("%w after %s: run %s", ErrRunTimeout, m.cfg.RunTimeout, run.ID)
		}
	}
	return err
}

// checkStatus reports whether run is terminal and, if so, whether it failed.
func checkStatus(run Run) (bool, error) {
	switch run.Status {
	case StatusCompleted:
		return true, nil
	case StatusFailed, StatusCancelled, StatusExpired, StatusIncomplete:
		if run.LastError != "" {
			return true, fmt.Errorf("%w: run %s %s: %s", ErrRunFailed, run.ID, run.Status, run.LastError)
		}
		return true, fmt.Errorf("%w: run %s %s", ErrRunFailed, run.ID, run.Status)
	case StatusRequiresAction:
		return true, fmt.Errorf("%w: run %s %s but no tools are registered", ErrRunFailed, run.ID, run.Status)
	default:
		return false, nil
	}
}

// cancelRun stops a run that is still active after polling gave up. Failure is logged only.
func (m *Manager) cancelRun(threadID, runID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.api.CancelRun(ctx, threadID, runID); err != nil {
		m.logger.Warn("Failed to cancel assistant run", "thread_id", threadID, "run_id", runID, "error", err)
	}
}

// cleanup deletes the per-call assistant. Failure is logged only.
func (m *Manager) cleanup(assistantID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.api.DeleteAssistant(ctx, assistantID); err != nil {
		m.logger.Warn("Failed to delete assistant", "assistant_id", assistantID, "error", err)
	}
}
