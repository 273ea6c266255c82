// Package translate turns Chinese text into Vietnamese through an
// authenticated generateContent call.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/zarvd/khaithi-translator/internal/auth"
	"github.com/zarvd/khaithi-translator/internal/fault"
)

const (
	stageValidate = "validate"
	stagePrompt   = "prompt"
	stageGenerate = "generate"

	maxResponseSize = 4 << 20
)

// Backend is where generation requests go and how they are authenticated.
type Backend struct {
	URL  string
	Auth auth.Authorizer
}

type Translator struct {
	logger  *slog.Logger
	client  *http.Client
	backend Backend
	timeout time.Duration
}

func NewTranslator(logger *slog.Logger, client *http.Client, backend Backend, timeout time.Duration) *Translator {
	return &Translator{
		logger:  logger,
		client:  client,
		backend: backend,
		timeout: timeout,
	}
}

// Translate returns the trimmed translation of chineseText. Every failure is
// a *fault.Error; nothing partial is ever returned.
func (t *Translator) Translate(ctx context.Context, chineseText string) (string, error) {
	logger := t.logger.With(slog.String("method", "Translate"), slog.String("auth", t.backend.Auth.Mode()))

	translation, err := t.translate(ctx, chineseText)
	if err != nil {
		logFailure(logger, err)
		return "", err
	}
	logger.Info("translated text", slog.Int("input-runes", len([]rune(chineseText))))
	return translation, nil
}

func (t *Translator) translate(ctx context.Context, chineseText string) (string, error) {
	if strings.TrimSpace(chineseText) == "" {
		return "", fault.New(fault.InvalidInput, stageValidate, "No Chinese text provided.")
	}

	prompt, err := renderPrompt(chineseText)
	if err != nil {
		return "", fault.Wrap(fault.Configuration, stagePrompt, err, "failed to render prompt")
	}
	body, err := json.Marshal(newGenerateRequest(prompt))
	if err != nil {
		return "", fault.Wrap(fault.Configuration, stagePrompt, err, "failed to encode generation request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.backend.URL, bytes.NewReader(body))
	if err != nil {
		return "", fault.Wrap(fault.Configuration, stageGenerate, err, "failed to build generation request")
	}
	req.Header.Set("Content-Type", "application/json")

	if err := t.backend.Auth.Authorize(req); err != nil {
		return "", err
	}

	// The deadline starts after authorization so token minting does not eat
	// into the generation budget.
	if t.timeout > 0 {
		genCtx, cancel := context.WithTimeout(ctx, t.timeout)
		defer cancel()
		req = req.WithContext(genCtx)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fault.Wrap(fault.Upstream, stageGenerate, redactURL(err), "failed to call generation API")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fault.Wrap(fault.Upstream, stageGenerate, err, "failed to read generation response").
			WithResponse(resp.StatusCode, raw)
	}

	var result generateResponse
	decodeErr := json.Unmarshal(raw, &result)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "An error occurred with the generation service."
		if decodeErr == nil && result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		return "", fault.Newf(fault.Upstream, stageGenerate, "%s", msg).WithResponse(resp.StatusCode, raw)
	}
	if decodeErr != nil {
		return "", fault.Wrap(fault.Upstream, stageGenerate, decodeErr, "failed to decode generation response").
			WithResponse(resp.StatusCode, raw)
	}

	text, err := extractText(&result)
	if err != nil {
		if fe, ok := fault.As(err); ok {
			fe.WithResponse(resp.StatusCode, raw)
		}
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// redactURL drops the query from a transport error's URL. In API-key mode the
// query carries the key, and the error text reaches logs and callers.
func redactURL(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	redacted := urlErr.URL
	if u, parseErr := url.Parse(urlErr.URL); parseErr == nil {
		u.RawQuery = ""
		u.ForceQuery = false
		redacted = u.String()
	} else if i := strings.IndexByte(redacted, '?'); i >= 0 {
		redacted = redacted[:i]
	}
	return &url.Error{Op: urlErr.Op, URL: redacted, Err: urlErr.Err}
}

func logFailure(logger *slog.Logger, err error) {
	attrs := []any{slog.Any("error", err)}
	if fe, ok := fault.As(err); ok {
		attrs = append(attrs,
			slog.String("kind", fe.Kind.String()),
			slog.String("stage", fe.Stage),
		)
		if fe.Status != 0 {
			attrs = append(attrs, slog.Int("status", fe.Status), slog.String("body", fe.Body))
		}
		if fe.FinishReason != "" {
			attrs = append(attrs, slog.String("finish-reason", fe.FinishReason))
		}
	}
	if fault.KindOf(err) == fault.InvalidInput {
		logger.Warn("rejected translation request", attrs...)
		return
	}
	logger.Error("failed to translate", attrs...)
}
