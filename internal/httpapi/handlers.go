package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/orderdesk/message-gateway/internal/config"
	"github.com/orderdesk/message-gateway/internal/core"
	"github.com/orderdesk/message-gateway/internal/metrics"
	"github.com/orderdesk/message-gateway/internal/provider"
	"github.com/orderdesk/message-gateway/internal/store"
)

type Server struct {
	Cfg    *config.Config
	Store  *store.Store
	Deps   provider.Deps
	Logger *slog.Logger
}

func NewServer(cfg *config.Config, st *store.Store, deps provider.Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	deps.Recorder = st
	return &Server{Cfg: cfg, Store: st, Deps: deps, Logger: logger}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, instrument)

	r.Post("/api/messaging", s.dispatchMessage)
	r.Get("/api/messaging/messages", s.listMessages)
	r.Post("/webhook/telegram", s.telegramWebhook)

	s.mountOps(r)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// FlexContent accepts either a JSON string or an array of strings.
type FlexContent []string

func (f *FlexContent) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = nil
	} else {
		*f = []string{s}
	}
	return nil
}

type dispatchRequest struct {
	Provider     core.ProviderType `json:"provider"`
	To           string            `json:"to"`
	TemplateName string            `json:"templateName"`
	Content      FlexContent       `json:"content"`
	Options      struct {
		PreviewURL bool   `json:"previewUrl"`
		Language   string `json:"language"`
	} `json:"options"`
}

func (s *Server) dispatchMessage(w http.ResponseWriter, r *http.Request) {
	var in dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body"})
		return
	}
	if in.To == "" || (len(in.Content) == 0 && in.TemplateName == "") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
		return
	}

	if !s.Cfg.Valid() {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":       "Messaging service configuration is incomplete",
			"userMessage": "Messaging is not available right now.",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	prov, err := provider.New(in.Provider, s.Cfg, s.Deps)
	if err != nil {
		s.Logger.Error("provider construction failed", "provider", in.Provider, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":       err.Error(),
			"userMessage": "Messages cannot be sent to this platform.",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	content := buildContent(in)
	opts := buildOptions(in)

	start := time.Now()
	resp := prov.SendMessage(r.Context(), in.To, content, opts)
	metrics.DispatchDuration.WithLabelValues(string(in.Provider)).Observe(time.Since(start).Seconds())

	if !resp.Success {
		metrics.DispatchTotal.WithLabelValues(string(in.Provider), "failed").Inc()
		s.Logger.Error("dispatch failed", "provider", in.Provider, "status", resp.StatusCode, "err", resp.Error)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":       resp.Error,
			"userMessage": "Your message could not be delivered.",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	metrics.DispatchTotal.WithLabelValues(string(in.Provider), "sent").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"messageId": resp.MessageID,
		"provider":  in.Provider,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// buildContent reconstructs MessageContent from the flattened wire shape:
// a template name turns the parameter list back into template metadata,
// otherwise the joined strings are a plain text body.
func buildContent(in dispatchRequest) core.MessageContent {
	body := strings.Join(in.Content, "\n")
	if in.TemplateName == "" {
		return core.MessageContent{Type: core.TypeText, Body: body}
	}
	return core.MessageContent{
		Type: core.TypeTemplate,
		Body: body,
		Metadata: &core.ContentMetadata{
			TemplateName: in.TemplateName,
			Parameters:   in.Content,
		},
	}
}

func buildOptions(in dispatchRequest) *core.MessageOptions {
	opts := &core.MessageOptions{PreviewURL: in.Options.PreviewURL}
	if in.TemplateName != "" {
		lang := in.Options.Language
		if lang == "" {
			lang = "en_US"
		}
		params := make([]core.TemplateParameter, 0, len(in.Content))
		for _, text := range in.Content {
			if text == "" {
				continue
			}
			params = append(params, core.TemplateParameter{Type: "text", Text: text})
		}
		opts.Template = &core.TemplateData{
			Name:     in.TemplateName,
			Language: lang,
			Components: []core.TemplateComponent{{
				Type:       "body",
				Parameters: params,
			}},
		}
	}
	return opts
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	platform := r.URL.Query().Get("platform")
	chatID := r.URL.Query().Get("chat_id")
	if platform == "" || chatID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "platform_and_chat_id_required"})
		return
	}

	opts := store.QueryOptions{}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			opts.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			opts.Offset = n
		}
	}
	if v := r.URL.Query().Get("direction"); v == "inbound" || v == "outbound" {
		opts.Direction = core.Direction(v)
	}

	items, err := s.Store.GetMessages(r.Context(), core.ProviderType(platform), chatID, opts)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if items == nil {
		items = []core.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "limit": opts.Limit, "offset": opts.Offset})
}

// telegramWebhook receives Bot API updates and records inbound messages.
func (s *Server) telegramWebhook(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body"})
		return
	}

	tg := provider.NewTelegram(s.Cfg, s.Deps)
	msg, err := tg.HandleIncoming(r.Context(), raw)
	if err != nil {
		s.Logger.Error("telegram webhook failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	// Telegram expects 200 for every update, including ones we ignore.
	out := map[string]any{"ok": true}
	if msg != nil {
		out["messageId"] = msg.ID
	}
	writeJSON(w, http.StatusOK, out)
}
