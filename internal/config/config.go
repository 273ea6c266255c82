// Package config resolves process configuration into the translation backend
// once at startup.
package config

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/juju/clock"

	"github.com/zarvd/khaithi-translator/internal/auth"
	"github.com/zarvd/khaithi-translator/internal/credential"
	"github.com/zarvd/khaithi-translator/internal/fault"
	"github.com/zarvd/khaithi-translator/internal/jwt"
	"github.com/zarvd/khaithi-translator/internal/oauth"
	"github.com/zarvd/khaithi-translator/internal/translate"
)

const (
	DefaultRegion       = "us-central1"
	DefaultVertexModel  = "gemini-1.5-flash-001"
	DefaultGeminiModel  = "gemini-1.5-flash-latest"
	DefaultGeminiURL    = "https://generativelanguage.googleapis.com"
	DefaultTokenTimeout = 10 * time.Second

	stageConfig = "config"
)

type Config struct {
	APIKey             string
	ServiceAccountJSON string

	Region      string
	VertexModel string
	GeminiModel string

	// Endpoint overrides. Empty values select the public Google endpoints.
	TokenURL      string
	VertexBaseURL string
	GeminiBaseURL string

	TokenTimeout time.Duration
}

// ServiceAccount parses the configured service account, or returns nil when
// none is configured.
func (c *Config) ServiceAccount() (*credential.ServiceAccount, error) {
	if strings.TrimSpace(c.ServiceAccountJSON) == "" {
		return nil, nil
	}
	sa, err := credential.Parse([]byte(c.ServiceAccountJSON))
	if err != nil {
		return nil, fault.Wrap(fault.Configuration, stageConfig, err, "invalid service account configuration")
	}
	return sa, nil
}

// Backend selects the authentication strategy and generation endpoint. A
// service account takes precedence over an API key. With neither, the
// backend fails every request with a configuration error.
func (c *Config) Backend(logger *slog.Logger, client *http.Client, clk clock.Clock) (translate.Backend, error) {
	sa, err := c.ServiceAccount()
	if err != nil {
		return translate.Backend{}, err
	}

	switch {
	case sa != nil:
		exchanger := oauth.NewExchanger(logger, client, clk, c.tokenURL(), c.tokenTimeout())
		return translate.Backend{
			URL:  c.vertexURL(sa.ProjectID),
			Auth: auth.NewServiceAccount(oauth.NewServiceAccountTokenSource(clk, sa, exchanger)),
		}, nil
	case c.APIKey != "":
		return translate.Backend{
			URL:  c.geminiURL(),
			Auth: auth.APIKey{Key: c.APIKey},
		}, nil
	default:
		return translate.Backend{
			URL:  c.geminiURL(),
			Auth: auth.Unconfigured{},
		}, nil
	}
}

func (c *Config) region() string {
	if c.Region == "" {
		return DefaultRegion
	}
	return c.Region
}

func (c *Config) tokenURL() string {
	if c.TokenURL == "" {
		return jwt.TokenURL
	}
	return c.TokenURL
}

func (c *Config) tokenTimeout() time.Duration {
	if c.TokenTimeout == 0 {
		return DefaultTokenTimeout
	}
	return c.TokenTimeout
}

func (c *Config) vertexURL(projectID string) string {
	region := c.region()
	base := c.VertexBaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s-aiplatform.googleapis.com", region)
	}
	model := c.VertexModel
	if model == "" {
		model = DefaultVertexModel
	}
	return fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:generateContent",
		strings.TrimSuffix(base, "/"), url.PathEscape(projectID), region, model)
}

func (c *Config) geminiURL() string {
	base := c.GeminiBaseURL
	if base == "" {
		base = DefaultGeminiURL
	}
	model := c.GeminiModel
	if model == "" {
		model = DefaultGeminiModel
	}
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimSuffix(base, "/"), model)
}
