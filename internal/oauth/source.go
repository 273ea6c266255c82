package oauth

import (
	"context"

	"github.com/juju/clock"
	"golang.org/x/oauth2"

	"github.com/zarvd/khaithi-translator/internal/credential"
	"github.com/zarvd/khaithi-translator/internal/fault"
	"github.com/zarvd/khaithi-translator/internal/jwt"
	"github.com/zarvd/khaithi-translator/internal/key"
)

// ServiceAccountTokenSource mints a fresh access token on every call. Tokens
// and imported keys are never cached.
type ServiceAccountTokenSource struct {
	clock     clock.Clock
	account   *credential.ServiceAccount
	exchanger *Exchanger
}

func NewServiceAccountTokenSource(
	clk clock.Clock,
	account *credential.ServiceAccount,
	exchanger *Exchanger,
) *ServiceAccountTokenSource {
	return &ServiceAccountTokenSource{
		clock:     clk,
		account:   account,
		exchanger: exchanger,
	}
}

// Token signs a new assertion and exchanges it. Steps run strictly in order:
// claims, signature, exchange.
func (s *ServiceAccountTokenSource) Token(ctx context.Context) (*oauth2.Token, error) {
	signer, err := key.NewSigner(s.account.PrivateKey)
	if err != nil {
		return nil, err
	}

	claims := jwt.BuildClaimSet(s.account, s.clock.Now().Unix())
	input, err := jwt.NewSigningInput(jwt.BuildHeader(), claims)
	if err != nil {
		return nil, fault.Wrap(fault.Signing, "assemble_jwt", err, "failed to assemble JWT")
	}
	signature, err := signer.Sign(input)
	if err != nil {
		return nil, err
	}

	return s.exchanger.Exchange(ctx, input.Attach(signature))
}
