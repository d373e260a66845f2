package provider

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orderdesk/message-gateway/internal/config"
	"github.com/orderdesk/message-gateway/internal/core"
	"github.com/orderdesk/message-gateway/internal/token"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func whatsappConfig(baseURL string) *config.Config {
	return &config.Config{
		WhatsApp: config.WhatsAppConfig{
			SystemUserToken: "system-token",
			PhoneNumberID:   "555000",
			BaseURL:         baseURL,
		},
	}
}

func whatsappDeps() Deps {
	return Deps{Logger: testLogger(), Tokens: token.NewManager()}
}

func textContent(body string) core.MessageContent {
	return core.MessageContent{Type: core.TypeText, Body: body}
}

func TestWhatsAppSend_TextSuccess(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/555000/messages", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []map[string]string{{"id": "wamid.XYZ"}},
		})
	}))
	defer srv.Close()

	p := NewWhatsApp(whatsappConfig(srv.URL), whatsappDeps())
	resp := p.SendMessage(context.Background(), "+1 (555) 123-4567", textContent("hello"), &core.MessageOptions{PreviewURL: true})

	require.True(t, resp.Success)
	require.Equal(t, "wamid.XYZ", resp.MessageID)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, "Bearer system-token", gotAuth)
	require.Equal(t, "whatsapp", gotPayload["messaging_product"])
	require.Equal(t, "15551234567", gotPayload["to"])
	text := gotPayload["text"].(map[string]any)
	require.Equal(t, "hello", text["body"])
	require.Equal(t, true, text["preview_url"])
}

func TestWhatsAppSend_TemplatePayload(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []map[string]string{{"id": "wamid.TPL"}},
		})
	}))
	defer srv.Close()

	p := NewWhatsApp(whatsappConfig(srv.URL), whatsappDeps())
	content := core.MessageContent{Type: core.TypeTemplate}
	opts := &core.MessageOptions{Template: &core.TemplateData{
		Name:     "order_success",
		Language: "en_US",
		Components: []core.TemplateComponent{{
			Type:       "body",
			Parameters: []core.TemplateParameter{{Type: "text", Text: "Acme"}},
		}},
	}}
	resp := p.SendMessage(context.Background(), "15551234567", content, opts)

	require.True(t, resp.Success)
	tpl := gotPayload["template"].(map[string]any)
	require.Equal(t, "order_success", tpl["name"])
	require.Equal(t, map[string]any{"code": "en_US"}, tpl["language"])
}

func TestWhatsAppSend_TemplateWithoutDataFailsFast(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	p := NewWhatsApp(whatsappConfig(srv.URL), whatsappDeps())
	resp := p.SendMessage(context.Background(), "15551234567", core.MessageContent{Type: core.TypeTemplate}, nil)

	require.False(t, resp.Success)
	require.Equal(t, 400, resp.StatusCode)
	require.Contains(t, resp.Error, "missing_template_data")
	require.Equal(t, int32(0), hits.Load(), "must not reach the network")
}

func TestWhatsAppSend_InvalidRecipient(t *testing.T) {
	p := NewWhatsApp(whatsappConfig("http://unused"), whatsappDeps())
	resp := p.SendMessage(context.Background(), "not-a-number", textContent("hi"), nil)
	require.False(t, resp.Success)
	require.Equal(t, 400, resp.StatusCode)
}

func TestWhatsAppSend_UnsupportedType(t *testing.T) {
	p := NewWhatsApp(whatsappConfig("http://unused"), whatsappDeps())
	resp := p.SendMessage(context.Background(), "15551234567", core.MessageContent{Type: core.TypeLocation}, nil)
	require.False(t, resp.Success)
	require.Equal(t, 400, resp.StatusCode)
	require.Contains(t, resp.Error, "whatsapp")
	require.Contains(t, resp.Error, "location")
}

func TestWhatsAppSend_401RetriesOnceThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []map[string]string{{"id": "wamid.RETRY"}},
		})
	}))
	defer srv.Close()

	p := NewWhatsApp(whatsappConfig(srv.URL), whatsappDeps())
	resp := p.SendMessage(context.Background(), "15551234567", textContent("hi"), nil)

	require.True(t, resp.Success)
	require.Equal(t, "wamid.RETRY", resp.MessageID)
	require.Equal(t, int32(2), hits.Load())
}

func TestWhatsAppSend_Second401IsTerminal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewWhatsApp(whatsappConfig(srv.URL), whatsappDeps())
	resp := p.SendMessage(context.Background(), "15551234567", textContent("hi"), nil)

	require.False(t, resp.Success)
	require.Equal(t, 401, resp.StatusCode)
	require.Equal(t, int32(2), hits.Load(), "exactly one retry")
}

func TestWhatsAppSend_UpstreamErrorMessageMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "(#131030) Recipient phone number not in allowed list"},
		})
	}))
	defer srv.Close()

	p := NewWhatsApp(whatsappConfig(srv.URL), whatsappDeps())
	resp := p.SendMessage(context.Background(), "15551234567", textContent("hi"), nil)

	require.False(t, resp.Success)
	require.Equal(t, 400, resp.StatusCode)
	require.Contains(t, resp.Error, "Recipient phone number not in allowed list")
}

func TestWhatsAppSend_TimeoutMapsTo504(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	deps := whatsappDeps()
	deps.Timeout = 50 * time.Millisecond
	p := NewWhatsApp(whatsappConfig(srv.URL), deps)
	resp := p.SendMessage(context.Background(), "15551234567", textContent("hi"), nil)

	require.False(t, resp.Success)
	require.Equal(t, 504, resp.StatusCode)
}
