package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dskvich/openrouter-telegram-bot/pkg/domain"
)

type postgresHistoryRepository struct {
	db *sql.DB
}

func NewPostgresHistoryRepository(db *sql.DB) *postgresHistoryRepository {
	return &postgresHistoryRepository{db: db}
}

func (p *postgresHistoryRepository) Load(ctx context.Context, userID int64) ([]domain.Turn, error) {
	const query = `
		SELECT turns
		FROM transcripts
		WHERE user_id = $1
	`

	var data []byte
	err := p.db.QueryRowContext(ctx, query, userID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []domain.Turn{}, nil
		}
		return nil, fmt.Errorf("fetching transcript: %w", err)
	}

	return decodeTurns(data)
}

func (p *postgresHistoryRepository) Save(ctx context.Context, userID int64, turns []domain.Turn) error {
	const query = `
		INSERT INTO transcripts (user_id, turns, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET
			turns = EXCLUDED.turns,
			updated_at = EXCLUDED.updated_at
	`

	data, err := encodeTurns(turns)
	if err != nil {
		return err
	}

	if _, err := p.db.ExecContext(ctx, query, userID, string(data)); err != nil {
		return fmt.Errorf("saving transcript: %w", err)
	}

	return nil
}

func (p *postgresHistoryRepository) Clear(ctx context.Context, userID int64) error {
	return p.Save(ctx, userID, nil)
}

func (p *postgresHistoryRepository) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *postgresHistoryRepository) Close() error {
	return p.db.Close()
}
