package repository

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"sync"
	"testing"

	"github.com/dskvich/openrouter-telegram-bot/pkg/database"
	"github.com/dskvich/openrouter-telegram-bot/pkg/domain"
)

type historyRepository interface {
	Load(ctx context.Context, userID int64) ([]domain.Turn, error)
	Save(ctx context.Context, userID int64, turns []domain.Turn) error
	Clear(ctx context.Context, userID int64) error
	Ping(ctx context.Context) error
}

// testHistoryContract checks the behavior every backend must share.
func testHistoryContract(t *testing.T, repo historyRepository) {
	ctx := context.Background()

	t.Run("missing user loads empty", func(t *testing.T) {
		turns, err := repo.Load(ctx, 404)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if turns == nil || len(turns) != 0 {
			t.Errorf("expected empty non-nil transcript, got %#v", turns)
		}
	})

	t.Run("save replaces transcript", func(t *testing.T) {
		first := []domain.Turn{{Role: domain.RoleUser, Content: "Привет"}}
		second := []domain.Turn{
			{Role: domain.RoleUser, Content: "Hello"},
			{Role: domain.RoleAssistant, Content: "Hi!"},
		}

		if err := repo.Save(ctx, 1, first); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := repo.Save(ctx, 1, second); err != nil {
			t.Fatalf("Save: %v", err)
		}

		got, err := repo.Load(ctx, 1)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if !reflect.DeepEqual(got, second) {
			t.Errorf("got %+v, want %+v", got, second)
		}
	})

	t.Run("clear empties only that user", func(t *testing.T) {
		other := []domain.Turn{{Role: domain.RoleUser, Content: "keep"}}
		if err := repo.Save(ctx, 2, other); err != nil {
			t.Fatal(err)
		}
		if err := repo.Save(ctx, 3, other); err != nil {
			t.Fatal(err)
		}

		if err := repo.Clear(ctx, 2); err != nil {
			t.Fatalf("Clear: %v", err)
		}

		if got, _ := repo.Load(ctx, 2); len(got) != 0 {
			t.Errorf("expected cleared transcript, got %+v", got)
		}
		if got, _ := repo.Load(ctx, 3); !reflect.DeepEqual(got, other) {
			t.Errorf("other user transcript changed: %+v", got)
		}
	})

	t.Run("concurrent saves never mix transcripts", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				turns := make([]domain.Turn, n+1)
				for j := range turns {
					turns[j] = domain.Turn{Role: domain.RoleUser, Content: strconv.Itoa(n)}
				}
				if err := repo.Save(ctx, 5, turns); err != nil {
					t.Errorf("Save: %v", err)
				}
			}(i)
		}
		wg.Wait()

		got, err := repo.Load(ctx, 5)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(got) == 0 {
			t.Fatal("transcript lost")
		}
		want := strconv.Itoa(len(got) - 1)
		for _, turn := range got {
			if turn.Content != want {
				t.Fatalf("transcript of length %d contains turn from another writer: %+v", len(got), turn)
			}
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping: %v", err)
		}
	})
}

func TestMemoryHistoryRepository(t *testing.T) {
	testHistoryContract(t, NewMemoryHistoryRepository())
}

func TestBoltHistoryRepository(t *testing.T) {
	repo, err := NewBoltHistoryRepository(filepath.Join(t.TempDir(), "nested", "histories.bolt"))
	if err != nil {
		t.Fatalf("opening bolt repository: %v", err)
	}
	defer repo.Close()

	testHistoryContract(t, repo)
}

func TestBoltHistorySurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "histories.bolt")
	ctx := context.Background()
	turns := []domain.Turn{{Role: domain.RoleUser, Content: "remember me"}}

	repo, err := NewBoltHistoryRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, 42, turns); err != nil {
		t.Fatal(err)
	}
	if err := repo.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewBoltHistoryRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, err := reopened.Load(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, turns) {
		t.Errorf("got %+v after reopen, want %+v", got, turns)
	}
}

func TestDecodeTurnsRejectsGarbage(t *testing.T) {
	if _, err := decodeTurns([]byte("{not json")); err == nil {
		t.Error("expected an error")
	}
	if turns, err := decodeTurns([]byte("null")); err != nil || turns == nil {
		t.Errorf("null must decode to an empty transcript, got %#v, %v", turns, err)
	}
}

func TestEncodeTurnsLayout(t *testing.T) {
	data, err := encodeTurns([]domain.Turn{{Role: domain.RoleAssistant, Content: "ok"}})
	if err != nil {
		t.Fatal(err)
	}
	if want := `[{"role":"assistant","content":"ok"}]`; string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	empty, _ := encodeTurns(nil)
	if string(empty) != "[]" {
		t.Errorf("empty transcript encoded as %s", empty)
	}
}

func TestPostgresHistoryRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	db, err := database.NewPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connecting to postgres: %v", err)
	}
	repo := NewPostgresHistoryRepository(db)
	defer repo.Close()

	testHistoryContract(t, repo)
}

func TestRedisHistoryRepository(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR is not set")
	}

	repo, err := NewRedisHistoryRepository(context.Background(), addr, "", 15)
	if err != nil {
		t.Fatalf("connecting to redis: %v", err)
	}
	defer repo.Close()

	for _, id := range []int64{1, 2, 3, 5, 404} {
		if err := repo.client.Del(context.Background(), repo.key(id)).Err(); err != nil {
			t.Fatalf("resetting key: %v", err)
		}
	}

	testHistoryContract(t, repo)
}
