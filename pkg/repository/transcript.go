package repository

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dskvich/openrouter-telegram-bot/pkg/domain"
)

func encodeTurns(turns []domain.Turn) ([]byte, error) {
	if turns == nil {
		turns = []domain.Turn{}
	}
	data, err := json.Marshal(turns)
	if err != nil {
		return nil, fmt.Errorf("encoding transcript: %w", err)
	}
	return data, nil
}

func decodeTurns(data []byte) ([]domain.Turn, error) {
	if len(data) == 0 {
		return []domain.Turn{}, nil
	}
	var turns []domain.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("decoding transcript: %w", err)
	}
	if turns == nil {
		turns = []domain.Turn{}
	}
	return turns, nil
}

func userKey(userID int64) []byte {
	return []byte(strconv.FormatInt(userID, 10))
}
