// Package credential loads the service account identity used to obtain
// access tokens.
package credential

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ServiceAccount is a parsed service account key file. It is immutable once
// loaded. Only the fields needed for the JWT bearer flow are kept.
type ServiceAccount struct {
	ClientEmail  string `json:"client_email"`
	PrivateKey   string `json:"private_key"`
	PrivateKeyID string `json:"private_key_id,omitempty"`
	ProjectID    string `json:"project_id"`
}

// Parse decodes a service account JSON document and validates it.
func Parse(data []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, errors.Wrap(err, "failed to decode service account JSON")
	}
	if err := sa.Validate(); err != nil {
		return nil, err
	}
	return &sa, nil
}

// Validate checks that the fields required for signing and addressing the
// generation endpoint are present. The PEM itself is checked at import time.
func (sa *ServiceAccount) Validate() error {
	var missing []string
	if strings.TrimSpace(sa.ClientEmail) == "" {
		missing = append(missing, "client_email")
	}
	if strings.TrimSpace(sa.PrivateKey) == "" {
		missing = append(missing, "private_key")
	}
	if strings.TrimSpace(sa.ProjectID) == "" {
		missing = append(missing, "project_id")
	}
	if len(missing) > 0 {
		return errors.Newf("service account is missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// String omits the private key so a credential can be logged safely.
func (sa *ServiceAccount) String() string {
	return fmt.Sprintf("ServiceAccount{client_email=%s, project_id=%s}", sa.ClientEmail, sa.ProjectID)
}
