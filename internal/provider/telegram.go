package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/orderdesk/message-gateway/internal/config"
	"github.com/orderdesk/message-gateway/internal/core"
)

// Telegram sends HTML-formatted messages through the Bot API. Recipients
// are chat ids, not phone numbers; inputs that don't resolve fall back to
// the configured default chat.
type Telegram struct {
	cfg  *config.Config
	deps Deps
}

func NewTelegram(cfg *config.Config, deps Deps) *Telegram {
	deps.fill()
	return &Telegram{cfg: cfg, deps: deps}
}

var nonDigits = regexp.MustCompile(`[^\d]`)

func (t *Telegram) SendMessage(ctx context.Context, to string, content core.MessageContent, opts *core.MessageOptions) core.MessageResponse {
	chatID := t.resolveChatID(to)
	if chatID == "" {
		// Structured failure, not an error: the user simply hasn't opened a
		// conversation with the bot yet.
		return core.MessageResponse{
			Success:    false,
			Error:      "no valid chat ID found; user must start a conversation with the bot first",
			StatusCode: http.StatusBadRequest,
		}
	}

	payload, err := t.buildPayload(chatID, content)
	if err != nil {
		return failure(err)
	}

	resp, err := t.dispatch(ctx, payload)
	if err != nil {
		t.deps.Logger.Error("telegram send failed", "chat_id", chatID, "err", err)
		return failure(err)
	}

	if resp.Success && resp.MessageID != "" {
		t.recordOutbound(ctx, chatID, content, resp.MessageID)
	}
	return resp
}

// resolveChatID cleans the input down to digits and keeps it only when it
// matches the configured default chat; anything else falls back to the
// default. An empty result means no chat is reachable.
func (t *Telegram) resolveChatID(to string) string {
	cleaned := nonDigits.ReplaceAllString(to, "")
	if cleaned != "" && cleaned == t.cfg.Telegram.DefaultChatID {
		return cleaned
	}
	return t.cfg.Telegram.DefaultChatID
}

func (t *Telegram) buildPayload(chatID string, content core.MessageContent) (map[string]any, error) {
	switch content.Type {
	case core.TypeText:
		return map[string]any{
			"chat_id":    chatID,
			"text":       content.Body,
			"parse_mode": "HTML",
		}, nil

	case core.TypeTemplate:
		// No template registry on Telegram; flatten the parameters into
		// plain formatted text.
		text := content.Body
		if content.Metadata != nil && len(content.Metadata.Parameters) > 0 {
			text = ""
			for i, p := range content.Metadata.Parameters {
				if i > 0 {
					text += "\n"
				}
				text += p
			}
		}
		return map[string]any{
			"chat_id":    chatID,
			"text":       text,
			"parse_mode": "HTML",
		}, nil

	default:
		return nil, &core.UnsupportedMessageTypeError{Provider: core.ProviderTelegram, Type: content.Type}
	}
}

type tgSendResult struct {
	OK     bool `json:"ok"`
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
	Description string `json:"description"`
}

func (t *Telegram) dispatch(ctx context.Context, payload map[string]any) (core.MessageResponse, error) {
	if err := t.deps.Limiters.For(core.ProviderTelegram).Wait(ctx); err != nil {
		return core.MessageResponse{}, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return core.MessageResponse{}, fmt.Errorf("marshal: %w", err)
	}

	cctx, cancel := context.WithTimeout(ctx, t.deps.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s%s/sendMessage", t.cfg.Telegram.BaseURL, t.cfg.Telegram.BotToken)
	req, err := http.NewRequestWithContext(cctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return core.MessageResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.deps.Client.Do(req)
	if err != nil {
		return core.MessageResponse{}, fmt.Errorf("telegram send: %w", asTimeout(err))
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var result tgSendResult
	_ = json.Unmarshal(raw, &result)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !result.OK {
		msg := "Telegram API error"
		if result.Description != "" {
			msg = result.Description
		}
		return core.MessageResponse{}, &core.UpstreamError{
			Provider:   core.ProviderTelegram,
			StatusCode: resp.StatusCode,
			Message:    msg,
		}
	}

	return core.MessageResponse{
		Success:    true,
		MessageID:  strconv.FormatInt(result.Result.MessageID, 10),
		StatusCode: resp.StatusCode,
	}, nil
}

// recordOutbound persists the sent message. Best-effort: a store failure is
// logged and the send still counts as delivered.
func (t *Telegram) recordOutbound(ctx context.Context, chatID string, content core.MessageContent, messageID string) {
	if t.deps.Recorder == nil {
		return
	}

	body := content.Body
	if content.Type != core.TypeText {
		if b, err := json.Marshal(map[string]any{"type": content.Type, "body": content.Body}); err == nil {
			body = string(b)
		}
	}

	userID := "bot"
	meta := map[string]any{
		"type":    string(content.Type),
		"sent_at": time.Now().UTC().Format(time.RFC3339),
	}
	if content.Metadata != nil && content.Metadata.TemplateName != "" {
		meta["template_name"] = content.Metadata.TemplateName
	}

	msg := &core.Message{
		Platform:          core.ProviderTelegram,
		Direction:         core.DirectionOutbound,
		Status:            core.StatusSent,
		PlatformMessageID: &messageID,
		PlatformChatID:    chatID,
		PlatformUserID:    &userID,
		Content:           body,
		Metadata:          meta,
	}
	if err := t.deps.Recorder.Insert(ctx, msg); err != nil {
		t.deps.Logger.Error("failed to store outbound telegram message", "chat_id", chatID, "err", err)
	}
}

// HandleIncoming parses a Telegram webhook update into an inbound record.
// Non-message updates yield (nil, nil).
func (t *Telegram) HandleIncoming(ctx context.Context, raw []byte) (*core.Message, error) {
	var update struct {
		Message *struct {
			MessageID int64 `json:"message_id"`
			From      *struct {
				ID int64 `json:"id"`
			} `json:"from"`
			Chat *struct {
				ID int64 `json:"id"`
			} `json:"chat"`
			Text string `json:"text"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &update); err != nil {
		return nil, fmt.Errorf("telegram update: %w", err)
	}
	if update.Message == nil || update.Message.Chat == nil || update.Message.Text == "" {
		return nil, nil
	}

	msgID := strconv.FormatInt(update.Message.MessageID, 10)
	msg := &core.Message{
		Platform:          core.ProviderTelegram,
		Direction:         core.DirectionInbound,
		Status:            core.StatusDelivered,
		PlatformMessageID: &msgID,
		PlatformChatID:    strconv.FormatInt(update.Message.Chat.ID, 10),
		Content:           update.Message.Text,
	}
	if update.Message.From != nil {
		uid := strconv.FormatInt(update.Message.From.ID, 10)
		msg.PlatformUserID = &uid
	}

	if t.deps.Recorder != nil {
		if err := t.deps.Recorder.Insert(ctx, msg); err != nil {
			return nil, fmt.Errorf("store inbound telegram message: %w", err)
		}
	}
	return msg, nil
}
