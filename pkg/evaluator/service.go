package evaluator

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/bramble/pkg/models"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

// Store persists evaluation scores.
type Store interface {
	Map(ctx context.Context) (map[string]models.Evaluation, error)
	Upsert(ctx context.Context, e *models.Evaluation) error
}

// Service scores admitted listings that have no evaluation yet. Existing
// scores are never re-requested; re-evaluation is an operator action, not an
// automatic one.
type Service struct {
	logger ectologger.Logger
	client *Client
	store  Store
}

// NewService creates a new evaluation service
func NewService(logger ectologger.Logger, client *Client, store Store) *Service {
	return &Service{
		logger: logger,
		client: client,
		store:  store,
	}
}

// ScoreMissing evaluates the listings that have no stored score and persists
// the results. It returns the number of new scores stored.
func (s *Service) ScoreMissing(ctx context.Context, listings []models.Listing) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "evaluator.Service.ScoreMissing")
	defer span.End()

	existing, err := s.store.Map(ctx)
	if err != nil {
		return 0, err
	}

	pending := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if _, ok := existing[l.ID]; !ok {
			pending = append(pending, l)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	scored := s.client.EvaluateBatch(ctx, pending)

	stored := 0
	for id := range scored {
		eval := scored[id]
		if err := s.store.Upsert(ctx, &eval); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"listing_id": id,
			}).Warn("Failed to store evaluation")
			continue
		}
		stored++
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"pending": len(pending),
		"stored":  stored,
	}).Info("Scored unevaluated listings")

	return stored, nil
}
