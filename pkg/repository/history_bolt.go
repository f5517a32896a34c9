package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/dskvich/openrouter-telegram-bot/pkg/domain"
)

var transcriptsBucket = []byte("transcripts")

type boltHistoryRepository struct {
	db *bolt.DB
}

// NewBoltHistoryRepository opens (creating if needed) the transcript database at path.
func NewBoltHistoryRepository(path string) (*boltHistoryRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", path, err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db %s: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(transcriptsBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating transcripts bucket: %w", err)
	}

	return &boltHistoryRepository{db: db}, nil
}

func (b *boltHistoryRepository) Load(ctx context.Context, userID int64) ([]domain.Turn, error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		// Bolt values are only valid inside the transaction.
		if v := tx.Bucket(transcriptsBucket).Get(userKey(userID)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	return decodeTurns(data)
}

// Save replaces the transcript in a single write transaction.
func (b *boltHistoryRepository) Save(ctx context.Context, userID int64, turns []domain.Turn) error {
	data, err := encodeTurns(turns)
	if err != nil {
		return err
	}

	if err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(transcriptsBucket).Put(userKey(userID), data)
	}); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}

	return nil
}

func (b *boltHistoryRepository) Clear(ctx context.Context, userID int64) error {
	return b.Save(ctx, userID, nil)
}

func (b *boltHistoryRepository) Ping(ctx context.Context) error {
	return b.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(transcriptsBucket) == nil {
			return fmt.Errorf("bucket %s is missing", transcriptsBucket)
		}
		return nil
	})
}

func (b *boltHistoryRepository) Close() error {
	return b.db.Close()
}
