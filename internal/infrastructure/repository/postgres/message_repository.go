package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/rag-chat/internal/core/domain"
	"github.com/kirillkom/rag-chat/internal/core/ports"
)

// MessageRepository stores session transcripts. created_at is assigned by
// Postgres (clock_timestamp) so ordering follows the store clock.
type MessageRepository struct {
	db    *sql.DB
	q     dbtx
	newID func() string
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{
		db:    db,
		q:     db,
		newID: uuid.NewString,
	}
}

// WithinTx runs fn against a repository bound to a single transaction.
// Nested calls reuse the outer transaction.
func (r *MessageRepository) WithinTx(ctx context.Context, fn func(log ports.MessageLog) error) error {
	if r.db == nil {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "begin message tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&MessageRepository{q: tx, newID: r.newID}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return domain.WrapError(domain.ErrPersistence, "commit message tx", err)
	}
	return nil
}

func (r *MessageRepository) Append(ctx context.Context, msg domain.NewMessage) (*domain.Message, error) {
	if !msg.Role.Valid() {
		return nil, domain.NewError(domain.ErrBadRequest, "append message", fmt.Sprintf("unknown role %q", msg.Role))
	}

	out := domain.Message{
		ID:        r.newID(),
		SessionID: msg.SessionID,
		Role:      msg.Role,
		Text:      msg.Text,
	}
	row := r.q.QueryRowContext(ctx, `
INSERT INTO messages (id, session_id, role, text)
VALUES ($1, $2, $3, $4)
RETURNING created_at
`, out.ID, out.SessionID, string(out.Role), out.Text)
	if err := row.Scan(&out.CreatedAt); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "append message", err)
	}
	return &out, nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	row := r.q.QueryRowContext(ctx, `
SELECT id, session_id, role, text, created_at
FROM messages
WHERE id = $1
`, id)

	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.WrapError(domain.ErrPersistence, "find message", err)
	}
	return msg, nil
}

func (r *MessageRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.Message, error) {
	rows, err := r.q.QueryContext(ctx, `
SELECT id, session_id, role, text, created_at
FROM messages
WHERE session_id = $1
ORDER BY created_at ASC
`, sessionID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "list session messages", err)
	}
	defer rows.Close()

	out := make([]domain.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, domain.WrapError(domain.ErrPersistence, "scan session message", err)
		}
		out = append(out, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "iterate session messages", err)
	}
	return out, nil
}

func (r *MessageRepository) UpdateText(ctx context.Context, id, text string) (*domain.Message, error) {
	row := r.q.QueryRowContext(ctx, `
UPDATE messages
SET text = $2
WHERE id = $1
RETURNING id, session_id, role, text, created_at
`, id, text)

	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(domain.ErrNotFound, "update message", "id="+id)
		}
		return nil, domain.WrapError(domain.ErrPersistence, "update message", err)
	}
	return msg, nil
}

func (r *MessageRepository) DeleteAfter(ctx context.Context, sessionID string, createdAt time.Time) (int64, error) {
	result, err := r.q.ExecContext(ctx, `
DELETE FROM messages
WHERE session_id = $1 AND created_at > $2
`, sessionID, createdAt)
	if err != nil {
		return 0, domain.WrapError(domain.ErrPersistence, "delete messages after", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, domain.WrapError(domain.ErrPersistence, "delete messages rows affected", err)
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	var msg domain.Message
	var role string
	if err := row.Scan(&msg.ID, &msg.SessionID, &role, &msg.Text, &msg.CreatedAt); err != nil {
		return nil, err
	}
	msg.Role = domain.Role(role)
	return &msg, nil
}
