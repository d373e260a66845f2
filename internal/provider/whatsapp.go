package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/orderdesk/message-gateway/internal/config"
	"github.com/orderdesk/message-gateway/internal/core"
	"github.com/orderdesk/message-gateway/internal/metrics"
)

// WhatsApp sends through the WhatsApp Business Cloud API. Bearer tokens
// come from the token manager; a 401 clears the cached token and the send
// is retried exactly once with a fresh one.
type WhatsApp struct {
	cfg  *config.Config
	deps Deps
}

func NewWhatsApp(cfg *config.Config, deps Deps) *WhatsApp {
	deps.fill()
	return &WhatsApp{cfg: cfg, deps: deps}
}

func (w *WhatsApp) SendMessage(ctx context.Context, to string, content core.MessageContent, opts *core.MessageOptions) core.MessageResponse {
	phone, err := ValidatePhoneNumber(to)
	if err != nil {
		return failure(fmt.Errorf("%w: %q", err, to))
	}

	payload, err := w.buildPayload(phone, content, opts)
	if err != nil {
		return failure(err)
	}

	resp, err := w.dispatch(ctx, payload, false)
	if err != nil {
		w.deps.Logger.Error("whatsapp send failed", "to", phone, "err", err)
		return failure(err)
	}
	return resp
}

func (w *WhatsApp) buildPayload(to string, content core.MessageContent, opts *core.MessageOptions) (map[string]any, error) {
	base := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
	}

	switch content.Type {
	case core.TypeText:
		preview := false
		if opts != nil {
			preview = opts.PreviewURL
		}
		base["type"] = "text"
		base["text"] = map[string]any{
			"preview_url": preview,
			"body":        content.Body,
		}
		return base, nil

	case core.TypeTemplate:
		if opts == nil || opts.Template == nil || opts.Template.Name == "" {
			return nil, fmt.Errorf("whatsapp template send: %w", core.ErrMissingTemplateData)
		}
		lang := opts.Template.Language
		if lang == "" {
			lang = "en_US"
		}
		base["type"] = "template"
		base["template"] = map[string]any{
			"name":       opts.Template.Name,
			"language":   map[string]string{"code": lang},
			"components": opts.Template.Components,
		}
		return base, nil

	default:
		return nil, &core.UnsupportedMessageTypeError{Provider: core.ProviderWhatsApp, Type: content.Type}
	}
}

type waSendResult struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (w *WhatsApp) dispatch(ctx context.Context, payload map[string]any, retried bool) (core.MessageResponse, error) {
	if err := w.deps.Limiters.For(core.ProviderWhatsApp).Wait(ctx); err != nil {
		return core.MessageResponse{}, err
	}

	tok, err := w.deps.Tokens.GetToken(core.ProviderWhatsApp, w.cfg)
	if err != nil {
		return core.MessageResponse{}, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return core.MessageResponse{}, fmt.Errorf("marshal: %w", err)
	}

	cctx, cancel := context.WithTimeout(ctx, w.deps.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s/messages", w.cfg.WhatsApp.BaseURL, w.cfg.WhatsApp.PhoneNumberID)
	req, err := http.NewRequestWithContext(cctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return core.MessageResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := w.deps.Client.Do(req)
	if err != nil {
		return core.MessageResponse{}, fmt.Errorf("whatsapp send: %w", asTimeout(err))
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var result waSendResult
	_ = json.Unmarshal(raw, &result)

	if resp.StatusCode == http.StatusUnauthorized {
		w.deps.Tokens.ClearToken(core.ProviderWhatsApp)
		metrics.TokenRefreshTotal.WithLabelValues(string(core.ProviderWhatsApp)).Inc()
		if retried {
			return core.MessageResponse{}, fmt.Errorf("whatsapp token rejected twice: %w", core.ErrAuthExpired)
		}
		w.deps.Logger.Warn("whatsapp token rejected, retrying with fresh token")
		return w.dispatch(ctx, payload, true)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "WhatsApp API error"
		if result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		return core.MessageResponse{}, &core.UpstreamError{
			Provider:   core.ProviderWhatsApp,
			StatusCode: resp.StatusCode,
			Message:    msg,
		}
	}

	var msgID string
	if len(result.Messages) > 0 {
		msgID = result.Messages[0].ID
	}
	return core.MessageResponse{
		Success:    true,
		MessageID:  msgID,
		StatusCode: resp.StatusCode,
	}, nil
}
