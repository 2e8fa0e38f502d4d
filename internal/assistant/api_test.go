package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAssistantsServer serves the handful of Assistants endpoints the
// manager touches and records the requests it sees.
func fakeAssistantsServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()

	var mu sync.Mutex
	var seen []string
	polls := 0

	mux := http.NewServeMux()
	record := func(r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, r.Method+" "+r.URL.Path)
	}
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("POST /v1/assistants", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		assert.Equal(t, "assistants=v2", r.Header.Get("OpenAI-Beta"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o", body["model"])
		assert.Equal(t, "news-assistant", body["name"])
		writeJSON(w, map[string]any{"id": "asst_1", "object": "assistant"})
	})
	mux.HandleFunc("DELETE /v1/assistants/asst_1", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		writeJSON(w, map[string]any{"id": "asst_1", "deleted": true, "object": "assistant.deleted"})
	})
	mux.HandleFunc("POST /v1/threads", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		writeJSON(w, map[string]any{"id": "thread_1", "object": "thread"})
	})
	mux.HandleFunc("POST /v1/threads/thread_1/runs", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		writeJSON(w, map[string]any{"id": "run_1", "object": "thread.run", "status": "queued"})
	})
	mux.HandleFunc("GET /v1/threads/thread_1/runs/run_1", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		mu.Lock()
		polls++
		status := "in_progress"
		if polls > 1 {
			status = "completed"
		}
		mu.Unlock()
		writeJSON(w, map[string]any{"id": "run_1", "object": "thread.run", "status": status})
	})
	mux.HandleFunc("POST /v1/threads/thread_1/runs/run_1/cancel", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		writeJSON(w, map[string]any{"id": "run_1", "object": "thread.run", "status": "cancelling"})
	})
	mux.HandleFunc("GET /v1/threads/thread_1/messages", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		assert.Equal(t, "desc", r.URL.Query().Get("order"))
		assert.Equal(t, "run_1", r.URL.Query().Get("run_id"))
		writeJSON(w, map[string]any{
			"object":   "list",
			"has_more": false,
			"data": []map[string]any{
				{
					"id":   "msg_2",
					"role": "assistant",
					"content": []map[string]any{
						{"type": "text", "text": map[string]any{"value": "Votes are still being counted.", "annotations": []any{}}},
					},
				},
				{
					"id":   "msg_1",
					"role": "user",
					"content": []map[string]any{
						{"type": "text", "text": map[string]any{"value": "What happened?", "annotations": []any{}}},
					},
				},
			},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &seen
}

func TestOpenAIAPI_ManagerRoundTrip(t *testing.T) {
	server, seen := fakeAssistantsServer(t)

	api, err := NewOpenAIAPI("test-key", option.WithBaseURL(server.URL+"/v1"))
	require.NoError(t, err)

	m := NewManager(api, Config{PollInterval: time.Millisecond, MaxPollInterval: 2 * time.Millisecond}, nil)
	summary, err := m.Run(context.Background(), "What happened?", "", "instructions")
	require.NoError(t, err)

	assert.Equal(t, Summary{Reply: "Votes are still being counted.", ThreadID: "thread_1"}, summary)
	assert.Contains(t, *seen, "POST /v1/threads")
	assert.Contains(t, *seen, "DELETE /v1/assistants/asst_1")
}

func TestOpenAIAPI_CancelRun(t *testing.T) {
	server, seen := fakeAssistantsServer(t)

	api, err := NewOpenAIAPI("test-key", option.WithBaseURL(server.URL+"/v1"))
	require.NoError(t, err)

	require.NoError(t, api.CancelRun(context.Background(), "thread_1", "run_1"))
	assert.Equal(t, []string{"POST /v1/threads/thread_1/runs/run_1/cancel"}, *seen)
}

func TestNewOpenAIAPI_RequiresKey(t *testing.T) {
	_, err := NewOpenAIAPI("")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
