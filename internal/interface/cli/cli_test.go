package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsmedic/opsmedic/internal/app/config"
	"github.com/opsmedic/opsmedic/internal/infrastructure/di"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelWarn, &buf)

	logger.Debug("hidden %d", 1)
	logger.Info("hidden too")
	logger.Warn("visible %s", "warning")
	logger.Error("visible error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN: visible warning")
	assert.Contains(t, out, "ERROR: visible error")
}

func TestLogLevelFromString(t *testing.T) {
	assert.Equal(t, LogLevelDebug, LogLevelFromString("debug"))
	assert.Equal(t, LogLevelInfo, LogLevelFromString("INFO"))
	assert.Equal(t, LogLevelWarn, LogLevelFromString("warning"))
	assert.Equal(t, LogLevelError, LogLevelFromString("error"))
	assert.Equal(t, LogLevelWarn, LogLevelFromString(""))
	assert.Equal(t, LogLevelWarn, LogLevelFromString("nonsense"))
}

func chatContainer(t *testing.T, baseURL string) *di.Container {
	t.Helper()
	cfg := config.NewAppConfig(
		"anthropic", "", "test-key", baseURL,
		1024, 30, 8,
		"memory", "",
		"error",
		"default", "",
	)
	container, err := di.NewContainer(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })
	return container
}

func TestRunChat_SingleExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"content": [{"type": "text", "text": "Tell me which host."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	container := chatContainer(t, srv.URL)

	in := strings.NewReader("the web server is slow\nexit\n")
	var out bytes.Buffer
	require.NoError(t, runChat(context.Background(), container, in, &out))

	assert.Contains(t, out.String(), "opsmedic session SES-")
	assert.Contains(t, out.String(), "opsmedic> Tell me which host.")
	assert.Contains(t, out.String(), "tokens used: 10 in / 5 out")
	// first message moved the case out of IDLE
	assert.Contains(t, out.String(), "[AUDIT] you>")
}

func TestRunChat_BadApprovalSyntax(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider must not be called for malformed approvals")
	}))
	defer srv.Close()

	container := chatContainer(t, srv.URL)

	in := strings.NewReader("GO REPAIR: 5-3\nexit\n")
	var out bytes.Buffer
	require.NoError(t, runChat(context.Background(), container, in, &out))

	assert.Contains(t, out.String(), "invalid approval")
}

func TestRunChat_EOFEndsSession(t *testing.T) {
	container := chatContainer(t, "http://127.0.0.1:0")

	var out bytes.Buffer
	require.NoError(t, runChat(context.Background(), container, strings.NewReader(""), &out))
	assert.Contains(t, out.String(), "tokens used")
}
