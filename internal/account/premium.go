package account

import (
	"context"

	"github.com/victornm/quizkeep/internal/domain"
)

func (s *Service) Premium(ctx context.Context, id string) (domain.Premium, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return domain.Premium{}, err
	}

	return domain.LifetimePremium, nil
}
