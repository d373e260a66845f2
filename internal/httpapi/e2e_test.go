package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orderdesk/message-gateway/internal/apiclient"
	"github.com/orderdesk/message-gateway/internal/config"
	"github.com/orderdesk/message-gateway/internal/core"
	"github.com/orderdesk/message-gateway/internal/httpapi"
	"github.com/orderdesk/message-gateway/internal/provider"
	"github.com/orderdesk/message-gateway/internal/service"
	"github.com/orderdesk/message-gateway/internal/store"
	"github.com/orderdesk/message-gateway/internal/token"
)

// fakeTelegramAPI answers sendMessage like the Bot API and keeps the last
// payload it saw.
type fakeTelegramAPI struct {
	mu      sync.Mutex
	payload map[string]any
	hits    int
}

func newFakeTelegramAPI(t *testing.T) (*fakeTelegramAPI, *httptest.Server) {
	f := &fakeTelegramAPI{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &f.payload)
		f.hits++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":42}}`))
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func startGateway(t *testing.T) (*httptest.Server, *store.Store, *fakeTelegramAPI) {
	st := store.StartTestPostgres(t)
	tg, upstream := newFakeTelegramAPI(t)

	cfg := &config.Config{
		SendTimeout: 5 * time.Second,
		Telegram: config.TelegramConfig{
			BotToken:      "123:abc",
			DefaultChatID: "987654",
			// The bot token is appended to the base, Bot API style.
			BaseURL: upstream.URL + "/bot",
		},
	}
	deps := provider.Deps{Logger: testLogger(), Tokens: token.NewManager(), Timeout: 5 * time.Second}
	srv := httpapi.NewServer(cfg, st, deps, testLogger())

	gw := httptest.NewServer(srv.Router())
	t.Cleanup(gw.Close)
	return gw, st, tg
}

func TestOrderNotification_TelegramEndToEnd(t *testing.T) {
	gw, st, tg := startGateway(t)

	svc := service.New(apiclient.New(gw.URL), testLogger())
	delivery := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	resp, err := svc.SendOrderNotification(context.Background(), "987654", core.OrderNotificationParams{
		OrderNumber:  "1001",
		CustomerName: "Acme",
		Items:        []string{"2x Widget", "1x Gizmo"},
		Total:        59.90,
		DeliveryDate: &delivery,
	}, core.ProviderTelegram)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Regexp(t, regexp.MustCompile(`^\d+$`), resp.MessageID)

	// The rendered HTML reached the Bot API verbatim.
	require.Equal(t, 1, tg.hits)
	text, _ := tg.payload["text"].(string)
	require.Contains(t, text, "New Order #1001")
	require.Contains(t, text, "Acme")
	require.Contains(t, text, "• 2x Widget")
	require.Equal(t, "HTML", tg.payload["parse_mode"])
	require.Equal(t, "987654", tg.payload["chat_id"])

	// The outbound send was persisted against the resolved chat.
	msgs, err := st.GetMessages(context.Background(), core.ProviderTelegram, "987654", store.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, core.DirectionOutbound, msgs[0].Direction)
	require.Equal(t, core.StatusSent, msgs[0].Status)
	require.NotNil(t, msgs[0].PlatformMessageID)
	require.Equal(t, "42", *msgs[0].PlatformMessageID)
	require.Contains(t, msgs[0].Content, "New Order #1001")
}

func TestTelegramWebhook_PersistsInboundAndLists(t *testing.T) {
	gw, st, _ := startGateway(t)

	update := `{"update_id":7,"message":{"message_id":11,"from":{"id":555},"chat":{"id":987654},"text":"where is my order?"}}`
	w, err := http.Post(gw.URL+"/webhook/telegram", "application/json", bytes.NewBufferString(update))
	require.NoError(t, err)
	defer w.Body.Close()
	require.Equal(t, http.StatusOK, w.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	require.Equal(t, true, out["ok"])
	require.NotEmpty(t, out["messageId"])

	// Non-message updates are acknowledged without persisting anything.
	w2, err := http.Post(gw.URL+"/webhook/telegram", "application/json", bytes.NewBufferString(`{"update_id":8}`))
	require.NoError(t, err)
	w2.Body.Close()
	require.Equal(t, http.StatusOK, w2.StatusCode)

	// History endpoint surfaces the inbound record.
	resp, err := http.Get(gw.URL + "/api/messaging/messages?platform=telegram&chat_id=987654&direction=inbound")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Items []core.Message `json:"items"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Items, 1)
	require.Equal(t, "where is my order?", list.Items[0].Content)
	require.Equal(t, core.DirectionInbound, list.Items[0].Direction)
	require.NotNil(t, list.Items[0].PlatformUserID)
	require.Equal(t, "555", *list.Items[0].PlatformUserID)

	// Store-level view agrees with the HTTP one.
	msgs, err := st.GetMessages(context.Background(), core.ProviderTelegram, "987654", store.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestListMessages_RequiresPlatformAndChat(t *testing.T) {
	h := newTestServer(validConfig())

	req := httptest.NewRequest("GET", "/api/messaging/messages?platform=telegram", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
