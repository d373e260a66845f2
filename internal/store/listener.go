package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderdesk/message-gateway/internal/core"
)

const notifyChannel = "messages_insert"

// Listener maintains realtime subscriptions over one Postgres LISTEN
// connection. The registry is keyed by platform:chatID; subscribe and
// unsubscribe are the only writers.
type Listener struct {
	pool   *pgxpool.Pool
	logger *slog.Logger

	mu   sync.Mutex
	subs map[string]*subscription
}

type subscription struct {
	callback func(core.Message)
	done     bool
}

func NewListener(pool *pgxpool.Pool, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		pool:   pool,
		logger: logger,
		subs:   make(map[string]*subscription),
	}
}

func subKey(platform core.ProviderType, chatID string) string {
	return fmt.Sprintf("%s:%s", platform, chatID)
}

// Subscribe registers a callback for inserts matching (platform, chatID).
// At most one subscription exists per key: a duplicate call leaves the
// existing registration in place and just hands back its unsubscribe
// function. Unsubscribing evicts the registration; calling it twice is a
// no-op, and a later Subscribe opens a fresh registration.
func (l *Listener) Subscribe(platform core.ProviderType, chatID string, callback func(core.Message)) func() {
	key := subKey(platform, chatID)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.subs[key]; !ok {
		l.subs[key] = &subscription{callback: callback}
	}
	sub := l.subs[key]

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if sub.done {
			return
		}
		sub.done = true
		if l.subs[key] == sub {
			delete(l.subs, key)
		}
	}
}

// Run blocks on the notification channel until ctx is cancelled,
// re-acquiring the LISTEN connection after transient failures.
func (l *Listener) Run(ctx context.Context) error {
	for {
		if err := l.listen(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Warn("listener connection lost, reconnecting", "err", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.handlePayload([]byte(n.Payload))
	}
}

// handlePayload decodes a row_to_json notification and fans it out.
func (l *Listener) handlePayload(payload []byte) {
	var msg core.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		l.logger.Warn("bad notification payload", "err", err)
		return
	}
	l.dispatch(msg)
}

func (l *Listener) dispatch(msg core.Message) {
	l.mu.Lock()
	sub, ok := l.subs[subKey(msg.Platform, msg.PlatformChatID)]
	l.mu.Unlock()

	if ok {
		sub.callback(msg)
	}
}

// active reports the registration count; test hook.
func (l *Listener) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}
