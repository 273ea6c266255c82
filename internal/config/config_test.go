package config

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"

	"github.com/zarvd/khaithi-translator/internal/fault"
	"github.com/zarvd/khaithi-translator/internal/key/keytest"
)

func serviceAccountJSON(t *testing.T) string {
	t.Helper()
	b, err := json.Marshal(keytest.ServiceAccount(t))
	require.NoError(t, err)
	return string(b)
}

func TestConfig_Backend(t *testing.T) {
	t.Parallel()

	clk := testclock.NewClock(time.Unix(1700000000, 0))

	t.Run("service account", func(t *testing.T) {
		c := &Config{ServiceAccountJSON: serviceAccountJSON(t), APIKey: "ignored"}
		backend, err := c.Backend(slog.Default(), http.DefaultClient, clk)
		require.NoError(t, err)
		require.Equal(t, "service_account", backend.Auth.Mode())
		require.Equal(t,
			"https://us-central1-aiplatform.googleapis.com/v1/projects/demo-project/locations/us-central1/publishers/google/models/gemini-1.5-flash-001:generateContent",
			backend.URL)
	})

	t.Run("service account with overrides", func(t *testing.T) {
		c := &Config{
			ServiceAccountJSON: serviceAccountJSON(t),
			Region:             "asia-southeast1",
			VertexModel:        "gemini-2.0-flash",
			VertexBaseURL:      "http://127.0.0.1:9000/",
		}
		backend, err := c.Backend(slog.Default(), http.DefaultClient, clk)
		require.NoError(t, err)
		require.Equal(t,
			"http://127.0.0.1:9000/v1/projects/demo-project/locations/asia-southeast1/publishers/google/models/gemini-2.0-flash:generateContent",
			backend.URL)
	})

	t.Run("api key", func(t *testing.T) {
		c := &Config{APIKey: "k"}
		backend, err := c.Backend(slog.Default(), http.DefaultClient, clk)
		require.NoError(t, err)
		require.Equal(t, "api_key", backend.Auth.Mode())
		require.Equal(t,
			"https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash-latest:generateContent",
			backend.URL)
	})

	t.Run("nothing configured", func(t *testing.T) {
		backend, err := (&Config{}).Backend(slog.Default(), http.DefaultClient, clk)
		require.NoError(t, err)
		require.Equal(t, "unconfigured", backend.Auth.Mode())
	})

	t.Run("broken service account JSON", func(t *testing.T) {
		c := &Config{ServiceAccountJSON: `{"client_email": "a@b.c"`}
		_, err := c.Backend(slog.Default(), http.DefaultClient, clk)
		require.Equal(t, fault.Configuration, fault.KindOf(err))
	})
}
