package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/pkg/log"
	"github.com/sandevgo/recall/pkg/retry"
)

// Store persists sessions in sqlite and implements core.Storage. Writes are
// retried on transient lock contention; the core itself never retries.
type Store struct {
	db      *sql.DB
	retrier *retry.Retrier
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:      db,
		retrier: retry.NewRetrier(retry.NewWriteConfig()),
	}
}

func (s *Store) GetMessages(ctx context.Context, sessionID string) ([]core.Message, error) {
	query := `SELECT id, role, content, created_at, pinned, importance, metadata
	          FROM messages WHERE session_id = ? ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []core.Message
	for rows.Next() {
		var msg core.Message
		var pinned int
		var importance sql.NullFloat64
		var metadata sql.NullString

		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &msg.Timestamp, &pinned, &importance, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		msg.Pinned = pinned != 0
		if importance.Valid {
			v := importance.Float64
			msg.Importance = &v
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &msg.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}

		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.FromCtx(ctx).Debug().Int("count", len(messages)).Msg("loaded session messages")
	return messages, nil
}

func (s *Store) AddMessage(ctx context.Context, sessionID string, msg core.Message) error {
	var metadata string
	if msg.Metadata != nil {
		raw, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = string(raw)
	}

	var importance sql.NullFloat64
	if msg.Importance != nil {
		importance = sql.NullFloat64{Float64: *msg.Importance, Valid: true}
	}

	query := `INSERT INTO messages (id, session_id, role, content, created_at, pinned, importance, metadata)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	return s.write(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query,
			msg.ID, sessionID, msg.Role, msg.Content, msg.Timestamp, boolToInt(msg.Pinned), importance, metadata)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		return nil
	})
}

func (s *Store) UpdateMessage(ctx context.Context, sessionID, messageID string, update core.MessageUpdate) error {
	var sets []string
	var args []any

	if update.Pinned != nil {
		sets = append(sets, "pinned = ?")
		args = append(args, boolToInt(*update.Pinned))
	}
	if update.Importance != nil {
		sets = append(sets, "importance = ?")
		args = append(args, *update.Importance)
	}
	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf(`UPDATE messages SET %s WHERE session_id = ? AND id = ?`, strings.Join(sets, ", "))
	args = append(args, sessionID, messageID)

	return s.write(ctx, func() error {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update message: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("update message %s: %w", messageID, core.ErrNotFound)
		}
		return nil
	})
}

func (s *Store) DeleteMessage(ctx context.Context, sessionID, messageID string) error {
	return s.write(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM messages WHERE session_id = ? AND id = ?`, sessionID, messageID)
		if err != nil {
			return fmt.Errorf("failed to delete message: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("delete message %s: %w", messageID, core.ErrNotFound)
		}
		return nil
	})
}

func (s *Store) GetSummary(ctx context.Context, sessionID string) (string, error) {
	var summary string
	err := s.db.QueryRowContext(ctx,
		`SELECT summary FROM summaries WHERE session_id = ?`, sessionID).Scan(&summary)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query summary: %w", err)
	}
	return summary, nil
}

func (s *Store) SetSummary(ctx context.Context, sessionID, summary string) error {
	query := `INSERT INTO summaries (session_id, summary, updated_at) VALUES (?, ?, ?)
	          ON CONFLICT (session_id) DO UPDATE SET summary = excluded.summary, updated_at = excluded.updated_at`

	return s.write(ctx, func() error {
		if _, err := s.db.ExecContext(ctx, query, sessionID, summary, time.Now()); err != nil {
			return fmt.Errorf("failed to upsert summary: %w", err)
		}
		return nil
	})
}

func (s *Store) ClearSession(ctx context.Context, sessionID string) error {
	return s.write(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
			return fmt.Errorf("failed to delete session messages: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM summaries WHERE session_id = ?`, sessionID); err != nil {
			return fmt.Errorf("failed to delete session summary: %w", err)
		}
		return tx.Commit()
	})
}

func (s *Store) HasSession(ctx context.Context, sessionID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM messages WHERE session_id = ? LIMIT 1`, sessionID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query session: %w", err)
	}
	return true, nil
}

// write runs op under the write retrier, retrying only lock contention.
// Not-found and constraint errors pass straight through.
func (s *Store) write(ctx context.Context, op func() error) error {
	var lastErr error
	retryErr := s.retrier.Do(ctx, func() error {
		lastErr = op()
		if lastErr != nil && !isBusy(lastErr) {
			// non-transient: stop the retrier, surface lastErr below
			return nil
		}
		return lastErr
	})
	if lastErr != nil {
		return lastErr
	}
	return retryErr
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
