package provider

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"golang.org/x/time/rate"

	"github.com/orderdesk/message-gateway/internal/core"
	"github.com/orderdesk/message-gateway/internal/token"
)

// Provider is one concrete integration with an external messaging platform.
// SendMessage never returns an error: every outcome, including validation
// and upstream failures, is folded into the response envelope.
type Provider interface {
	SendMessage(ctx context.Context, to string, content core.MessageContent, opts *core.MessageOptions) core.MessageResponse
}

// IncomingHandler is implemented by providers that can translate a raw
// inbound webhook payload into a message record.
type IncomingHandler interface {
	HandleIncoming(ctx context.Context, raw []byte) (*core.Message, error)
}

// MessageRecorder persists sent/received messages. Satisfied by
// store.Store; kept as an interface so providers can be tested without
// Postgres.
type MessageRecorder interface {
	Insert(ctx context.Context, msg *core.Message) error
}

// Deps are the collaborators shared across provider implementations,
// supplied by the composition root.
type Deps struct {
	Logger   *slog.Logger
	Tokens   *token.Manager
	Recorder MessageRecorder
	Client   *http.Client
	Limiters *Limiters
	Timeout  time.Duration
}

const defaultSendTimeout = 10 * time.Second

func (d *Deps) fill() {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Client == nil {
		d.Client = SharedHTTPClient(0)
	}
	if d.Limiters == nil {
		d.Limiters = NewLimiters(rate.Inf, 0)
	}
	if d.Timeout <= 0 {
		d.Timeout = defaultSendTimeout
	}
}

var nonPhoneChars = regexp.MustCompile(`[^\d+]`)
var digitsOnly = regexp.MustCompile(`^\d{1,15}$`)

// ValidatePhoneNumber strips separators and a leading plus, then requires
// 1-15 remaining digits. Platforms that address chats by opaque id
// (Telegram, LINE) resolve recipients their own way and skip this.
func ValidatePhoneNumber(phone string) (string, error) {
	cleaned := nonPhoneChars.ReplaceAllString(phone, "")
	if len(cleaned) > 0 && cleaned[0] == '+' {
		cleaned = cleaned[1:]
	}
	if !digitsOnly.MatchString(cleaned) {
		return "", core.ErrInvalidRecipient
	}
	return cleaned, nil
}

// failure converts any provider-internal error into the structured response
// the contract demands.
func failure(err error) core.MessageResponse {
	code := http.StatusInternalServerError

	var upstream *core.UpstreamError
	var badType *core.UnsupportedMessageTypeError
	switch {
	case errors.As(err, &upstream):
		code = upstream.StatusCode
	case errors.As(err, &badType):
		code = http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidRecipient),
		errors.Is(err, core.ErrMissingTemplateData):
		code = http.StatusBadRequest
	case errors.Is(err, core.ErrAuthExpired):
		code = http.StatusUnauthorized
	case errors.Is(err, core.ErrTimeout):
		code = http.StatusGatewayTimeout
	case errors.Is(err, core.ErrNotImplemented):
		code = http.StatusNotImplemented
	}

	return core.MessageResponse{
		Success:    false,
		Error:      err.Error(),
		StatusCode: code,
	}
}

// asTimeout normalizes context deadline errors from the HTTP client into
// the timeout sentinel so callers see a 504, not a generic 500.
func asTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.ErrTimeout
	}
	return err
}
