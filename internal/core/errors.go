package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRecipient means the recipient failed phone/chat-id validation.
	ErrInvalidRecipient = errors.New("invalid_recipient")

	// ErrUnsupportedProviderType is returned by the provider factory for any
	// name outside the closed set it constructs.
	ErrUnsupportedProviderType = errors.New("unsupported_provider_type")

	// ErrUnsupportedProvider is returned by the token manager for a provider
	// it has no derivation rule for.
	ErrUnsupportedProvider = errors.New("unsupported_provider")

	// ErrAuthExpired means the upstream rejected the bearer token (401).
	ErrAuthExpired = errors.New("auth_expired")

	// ErrNotImplemented marks a declared-but-missing capability.
	ErrNotImplemented = errors.New("not_implemented")

	// ErrTimeout means an outbound call exceeded its budget.
	ErrTimeout = errors.New("timeout")

	// ErrMissingTemplateData means a template send arrived without the
	// template name/language it needs. Validated up front instead of
	// forwarding empty fields upstream.
	ErrMissingTemplateData = errors.New("missing_template_data")
)

// UnsupportedMessageTypeError names the provider and the content type it
// cannot ship.
type UnsupportedMessageTypeError struct {
	Provider ProviderType
	Type     MessageType
}

func (e *UnsupportedMessageTypeError) Error() string {
	return fmt.Sprintf("unsupported message type for %s: %s", e.Provider, e.Type)
}

// UpstreamError carries a non-2xx status and the provider's error message.
type UpstreamError struct {
	Provider   ProviderType
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API %d: %s", e.Provider, e.StatusCode, e.Message)
}
