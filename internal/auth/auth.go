// Package auth holds the interchangeable ways a generation request can be
// authenticated.
package auth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/zarvd/khaithi-translator/internal/fault"
)

const stageAuthorize = "authorize"

// Authorizer attaches credentials to an outgoing request.
type Authorizer interface {
	Mode() string
	Authorize(req *http.Request) error
}

// TokenSource yields a fresh access token.
type TokenSource interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

var (
	_ Authorizer = APIKey{}
	_ Authorizer = (*ServiceAccount)(nil)
	_ Authorizer = Unconfigured{}
)

// APIKey appends the key as the "key" query parameter.
type APIKey struct {
	Key string
}

func (APIKey) Mode() string { return "api_key" }

func (a APIKey) Authorize(req *http.Request) error {
	q := req.URL.Query()
	q.Set("key", a.Key)
	req.URL.RawQuery = q.Encode()
	return nil
}

// ServiceAccount attaches a bearer token minted for every request.
type ServiceAccount struct {
	Source TokenSource
}

func NewServiceAccount(source TokenSource) *ServiceAccount {
	return &ServiceAccount{Source: source}
}

func (*ServiceAccount) Mode() string { return "service_account" }

func (a *ServiceAccount) Authorize(req *http.Request) error {
	token, err := a.Source.Token(req.Context())
	if err != nil {
		return fault.Wrap(fault.Authentication, stageAuthorize, err, "failed to obtain access token")
	}
	token.SetAuthHeader(req)
	return nil
}

// Unconfigured fails every request. It stands in when no credential was
// supplied so the server can still start and report the problem per request.
type Unconfigured struct{}

func (Unconfigured) Mode() string { return "unconfigured" }

func (Unconfigured) Authorize(*http.Request) error {
	return fault.New(fault.Configuration, stageAuthorize, "no API key or service account configured on server")
}
