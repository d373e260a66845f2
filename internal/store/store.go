// Package store persists message records in Postgres and fans out inserts
// to realtime subscribers via LISTEN/NOTIFY.
package store

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderdesk/message-gateway/internal/core"
	"github.com/orderdesk/message-gateway/internal/metrics"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Store struct {
	Pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store { return &Store{Pool: pool} }

// Migrate applies the embedded migrations in filename order.
func (s *Store) Migrate(ctx context.Context) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := s.Pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}

// Insert writes a message record, assigning id and timestamps. The record
// is updated in place with the generated values.
func (s *Store) Insert(ctx context.Context, msg *core.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	var meta []byte
	if msg.Metadata != nil {
		b, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		meta = b
	}

	err := s.Pool.QueryRow(ctx, `
		INSERT INTO messages(id, platform, direction, status, platform_message_id,
			platform_chat_id, platform_user_id, content, metadata)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at
	`, msg.ID, msg.Platform, msg.Direction, msg.Status, msg.PlatformMessageID,
		msg.PlatformChatID, msg.PlatformUserID, msg.Content, meta,
	).Scan(&msg.CreatedAt, &msg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	metrics.StoreInsertTotal.WithLabelValues(string(msg.Platform), string(msg.Direction)).Inc()
	return nil
}

// QueryOptions narrows and pages a message history query.
type QueryOptions struct {
	Limit     int
	Offset    int
	Direction core.Direction // empty = both
}

// GetMessages returns history for one (platform, chat) pair, newest first.
func (s *Store) GetMessages(ctx context.Context, platform core.ProviderType, chatID string, opts QueryOptions) ([]core.Message, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	q := `SELECT id, platform, direction, status, platform_message_id,
		platform_chat_id, platform_user_id, content, metadata, created_at, updated_at
		FROM messages WHERE platform=$1 AND platform_chat_id=$2`
	args := []any{platform, chatID}
	idx := 3
	if opts.Direction != "" {
		q += fmt.Sprintf(" AND direction=$%d", idx)
		args = append(args, opts.Direction)
		idx++
	}
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, opts.Offset)

	rows, err := s.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []core.Message
	for rows.Next() {
		var m core.Message
		var meta []byte
		if err := rows.Scan(&m.ID, &m.Platform, &m.Direction, &m.Status, &m.PlatformMessageID,
			&m.PlatformChatID, &m.PlatformUserID, &m.Content, &meta, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &m.Metadata)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
