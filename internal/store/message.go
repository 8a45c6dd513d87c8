package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pharmarawasy-del/Delala/internal/utils"
	"github.com/pharmarawasy-del/Delala/pkg/types"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const messageTableName = "messages"

var messageColumns = utils.StructTagValues(types.ContactMessage{})

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

func (r *MessageRepository) CreateMessage(ctx context.Context, msg *types.ContactMessage) error {

	if msg.ID == "" {
		msg.ID = utils.NanoID()
	}
	msg.CreatedAt = time.Now()

	query, args, err := psql().Insert(messageTableName).
		Columns("id", "name", "contact_info", "subject", "message", "created_at").
		Values(msg.ID, msg.Name, nullable(msg.ContactInfo), msg.Subject, msg.Message, msg.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert message query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create contact message")

}

func (r *MessageRepository) RecentMessages(ctx context.Context, limit uint64) ([]*types.ContactMessage, error) {

	query, args, err := psql().Select(messageColumns...).From(messageTableName).
		OrderBy("created_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate recent messages query: %w", err)
	}

	var messages = make([]*types.ContactMessage, 0)
	err = pgxscan.Select(ctx, r.pool, &messages, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent messages: %w", err)
	}

	return messages, nil
}

func (r *MessageRepository) CountMessages(ctx context.Context) (int64, error) {

	query, args, err := psql().Select("count(*)").From(messageTableName).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate count messages query: %w", err)
	}

	var count int64
	err = pgxscan.Get(ctx, r.pool, &count, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}

	return count, nil
}
