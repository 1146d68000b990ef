package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-ai/eve/internal/llm"
)

func TestClientComplete(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "hello there"}},
			},
		})
	}))
	defer srv.Close()

	client := llm.NewClient(llm.ClientConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
	})

	reply, err := client.Complete(context.Background(), "say hello", 0.7)
	require.NoError(t, err)
	assert.Equal(t, "hello there", reply)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotBody["model"])
	assert.Equal(t, 0.7, gotBody["temperature"])
}

func TestClientCompleteErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := llm.NewClient(llm.ClientConfig{BaseURL: srv.URL})

	_, err := client.Complete(context.Background(), "prompt", 0.5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestClientCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := llm.NewClient(llm.ClientConfig{BaseURL: srv.URL})

	for i := 0; i < 3; i++ {
		_, err := client.Complete(context.Background(), "prompt", 0)
		require.Error(t, err)
	}

	assert.Equal(t, "open", client.CircuitState())

	_, err := client.Complete(context.Background(), "prompt", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrCircuitOpen)
}

func TestClientHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := llm.NewClient(llm.ClientConfig{BaseURL: srv.URL})
	assert.NoError(t, client.HealthCheck(context.Background()))
}

func TestClientDefaults(t *testing.T) {
	client := llm.NewClient(llm.ClientConfig{})
	assert.Equal(t, "openai/gpt-4o-mini", client.GetModel())
	assert.Equal(t, "closed", client.CircuitState())
}
