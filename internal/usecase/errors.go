package usecase

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized covers every credential failure: unknown email, wrong
	// password, inactive refresh token, rejected federated token. Callers
	// must not be able to tell these apart.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUpstreamUnavailable means the federated provider could not be
	// reached or returned an unexpected response.
	ErrUpstreamUnavailable = errors.New("upstream_unavailable")

	// ErrProvisioningFailed means persisting a freshly provisioned federated
	// account did not succeed.
	ErrProvisioningFailed = errors.New("provisioning_failed")

	ErrTokenNotFound = errors.New("refresh_token_not_found")
	ErrTokenInactive = errors.New("refresh_token_inactive")

	ErrSessionTokenMalformed = errors.New("session_token_malformed")
	ErrSessionTokenSignature = errors.New("session_token_bad_signature")
	ErrSessionTokenExpired   = errors.New("session_token_expired")
)

// ValidationError carries field-scoped registration conflicts so a UI can
// highlight the offending inputs. Multiple fields may be reported at once.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
