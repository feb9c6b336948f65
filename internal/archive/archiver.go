package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/degiro/internal/domain"
)

// Archiver copies account history from DEGIRO into the repository
type Archiver struct {
	source     domain.HistorySource
	repo       *Repository
	intAccount int64
	log        zerolog.Logger
	now        func() time.Time
}

// NewArchiver creates an archiver for the given account
func NewArchiver(source domain.HistorySource, repo *Repository, intAccount int64, log zerolog.Logger) *Archiver {
	return &Archiver{
		source:     source,
		repo:       repo,
		intAccount: intAccount,
		log:        log.With().Str("component", "archive").Logger(),
		now:        time.Now,
	}
}

// Run fetches cash movements and transactions between from and to and
// stores them under a new batch id. Nothing is stored when a fetch fails.
func (a *Archiver) Run(ctx context.Context, from, to time.Time) (*Batch, error) {
	movements, err := a.source.CashMovements(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cash movements: %w", err)
	}

	transactions, err := a.source.Transactions(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	batch := &Batch{
		ID:         uuid.NewString(),
		IntAccount: a.intAccount,
		From:       from,
		To:         to,
		CreatedAt:  a.now().UTC(),
	}

	if err := a.repo.SaveBatch(ctx, batch, movements, transactions); err != nil {
		return nil, err
	}

	a.log.Info().
		Str("batch_id", batch.ID).
		Int("fetched_movements", len(movements)).
		Int("new_movements", batch.CashMovements).
		Int("fetched_transactions", len(transactions)).
		Int("new_transactions", batch.Transactions).
		Msg("History archived")

	return batch, nil
}
