// Package oauth exchanges signed service account assertions for OAuth2
// access tokens.
package oauth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/juju/clock"
	"golang.org/x/oauth2"

	"github.com/zarvd/khaithi-translator/internal/fault"
	"github.com/zarvd/khaithi-translator/internal/jwt"
)

const (
	// GrantType is the JWT bearer grant (RFC 7523).
	GrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	stageExchange   = "token_exchange"
	maxResponseSize = 1 << 20
)

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Exchanger posts assertions to a token endpoint. It makes exactly one attempt
// per call.
type Exchanger struct {
	logger   *slog.Logger
	client   *http.Client
	clock    clock.Clock
	tokenURL string
	timeout  time.Duration
}

func NewExchanger(
	logger *slog.Logger,
	client *http.Client,
	clk clock.Clock,
	tokenURL string,
	timeout time.Duration,
) *Exchanger {
	return &Exchanger{
		logger:   logger.With(slog.String("stage", stageExchange)),
		client:   client,
		clock:    clk,
		tokenURL: tokenURL,
		timeout:  timeout,
	}
}

// Exchange trades assertion for an access token.
func (e *Exchanger) Exchange(ctx context.Context, assertion jwt.SignedJWT) (*oauth2.Token, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	form := url.Values{
		"grant_type": {GrantType},
		"assertion":  {string(assertion)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fault.Wrap(fault.TokenExchange, stageExchange, err, "failed to build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fault.Wrap(fault.TokenExchange, stageExchange, err, "failed to request access token")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fault.Wrap(fault.TokenExchange, stageExchange, err, "failed to read token response").
			WithResponse(resp.StatusCode, body)
	}
	e.logger.Debug("token endpoint responded", slog.Int("status", resp.StatusCode))

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fault.Wrap(fault.TokenExchange, stageExchange, err, "failed to decode token response").
			WithResponse(resp.StatusCode, body)
	}
	if tr.AccessToken == "" {
		reason := fault.Snippet(body)
		if tr.Error != "" {
			reason = tr.Error
			if tr.ErrorDescription != "" {
				reason += ": " + tr.ErrorDescription
			}
		}
		return nil, fault.Newf(fault.TokenExchange, stageExchange,
			"token response (HTTP %d) has no access_token: %s", resp.StatusCode, reason).
			WithResponse(resp.StatusCode, body)
	}

	expiresIn := tr.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = jwt.LifetimeSeconds
	}
	return &oauth2.Token{
		AccessToken: tr.AccessToken,
		TokenType:   tr.TokenType,
		Expiry:      e.clock.Now().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}
