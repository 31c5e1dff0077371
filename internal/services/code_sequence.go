package services

import (
	"context"
	"fmt"
	"sync/atomic"
)

const userCodeFormat = "PLAYITUSER#%05d"

func FormatUserCode(n int64) string {
	return fmt.Sprintf(userCodeFormat, n)
}

// PostgresCodeSequence increments a single-row counter. Concurrent callers
// serialize on the row lock, so every caller sees a distinct value.
type PostgresCodeSequence struct{}

func (PostgresCodeSequence) Next(ctx context.Context, q Querier) (string, error) {
	var n int64
	err := q.QueryRow(ctx,
		`UPDATE user_code_sequence SET last_value = last_value + 1 WHERE id = 1 RETURNING last_value`,
	).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("allocating user code: %w", err)
	}
	return FormatUserCode(n), nil
}

// MemoryCodeSequence is an in-process sequence, used where no database is
// available.
type MemoryCodeSequence struct {
	last atomic.Int64
}

func NewMemoryCodeSequence(start int64) *MemoryCodeSequence {
	s := &MemoryCodeSequence{}
	s.last.Store(start)
	return s
}

func (s *MemoryCodeSequence) Next(ctx context.Context, _ Querier) (string, error) {
	return FormatUserCode(s.last.Add(1)), nil
}
