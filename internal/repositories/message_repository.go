package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"board-service/internal/models"
)

// MessageRepository defines persistence for submitted messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)
	ListRecent(ctx context.Context, limit int) ([]models.Message, error)
	CountMessages(ctx context.Context) (int64, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage inserts one submission. The insert timestamp comes from the
// database and the returned row reflects exactly what was stored.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	row := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (content, ip_address, location, device_info)
        VALUES ($1, $2, $3, $4)
        RETURNING id, content, ip_address, location, device_info, created_at`,
		msg.Content, msg.IPAddress, msg.Location, msg.DeviceInfo)
	return scanMessage(row)
}

// ListRecent returns the newest messages first, capped at limit.
func (r *MessageRepo) ListRecent(ctx context.Context, limit int) ([]models.Message, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT id, content, ip_address, location, device_info, created_at
        FROM messages
        ORDER BY created_at DESC
        LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]models.Message, 0, limit)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// CountMessages returns the total number of stored messages.
func (r *MessageRepo) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages`)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanMessage reads one row, decoding the JSONB sub-records. NULL columns
// leave the corresponding pointer nil.
func scanMessage(row rowScanner) (models.Message, error) {
	var (
		msg    models.Message
		locRaw []byte
		devRaw []byte
	)
	if err := row.Scan(&msg.ID, &msg.Content, &msg.IPAddress, &locRaw, &devRaw, &msg.CreatedAt); err != nil {
		return models.Message{}, err
	}
	if len(locRaw) > 0 {
		if err := json.Unmarshal(locRaw, &msg.Location); err != nil {
			return models.Message{}, fmt.Errorf("decode location: %w", err)
		}
	}
	if len(devRaw) > 0 {
		if err := json.Unmarshal(devRaw, &msg.DeviceInfo); err != nil {
			return models.Message{}, fmt.Errorf("decode device info: %w", err)
		}
	}
	return msg, nil
}
