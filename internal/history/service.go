// Package history keeps each account's completed sessions, newest first, capped in length.
package history

import (
	"context"
	"log/slog"
	"sync"

	"github.com/victornm/quizkeep/internal/domain"
	"github.com/victornm/quizkeep/internal/errors"
	"github.com/victornm/quizkeep/internal/store"
)

const DefaultCap = 50

type Config struct {
	Store *store.Store
	// Cap is the number of records kept per account; older records are evicted.
	Cap int
}

type Service struct {
	st  *store.Store
	cap int

	mu sync.Mutex
}

func NewService(c Config) *Service {
	s := &Service{
		st:  c.Store,
		cap: c.Cap,
	}
	if s.cap <= 0 {
		s.cap = DefaultCap
	}

	return s
}

// Append prepends rec to the account's history. A history that cannot be read is left as is
// rather than overwritten.
func (s *Service) Append(ctx context.Context, accountID string, rec domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []domain.SessionRecord
	if _, err := s.st.Get(ctx, key(accountID), &records); err != nil {
		slog.ErrorContext(ctx, "history: read failed, record dropped", "account_id", accountID, "error", err)
		return errors.Storage(err)
	}

	records = append([]domain.SessionRecord{rec}, records...)
	if len(records) > s.cap {
		records = records[:s.cap]
	}

	if err := s.st.Set(ctx, key(accountID), records); err != nil {
		slog.ErrorContext(ctx, "history: write failed", "account_id", accountID, "error", err)
		return errors.Storage(err)
	}

	return nil
}

// List returns the account's history, newest first. Read failures yield an empty history.
func (s *Service) List(ctx context.Context, accountID string) []domain.SessionRecord {
	var records []domain.SessionRecord
	if !s.st.GetOrEmpty(ctx, key(accountID), &records) {
		return []domain.SessionRecord{}
	}

	return records
}

func key(accountID string) string {
	return "history:" + accountID
}
