package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/clipforge/quota-service/internal/accounts"
	"github.com/clipforge/quota-service/pkg/db/models"
	pkgerrors "github.com/clipforge/quota-service/pkg/errors"
	"github.com/clipforge/quota-service/pkg/pagination"
)

// Service reads the per-account audit trail.
type Service interface {
	ListEntries(ctx context.Context, accountID string, params pagination.Params) (*EntryPage, error)
}

// EntryPage is one page of ledger entries, newest first.
type EntryPage struct {
	Entries    []models.LedgerEntry
	NextCursor string
}

type service struct {
	repo     Repository
	accounts accounts.Repository
}

// NewService wires a ledger service with the provided repositories.
func NewService(repo Repository, accountsRepo accounts.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if accountsRepo == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	return &service{repo: repo, accounts: accountsRepo}, nil
}

func (s *service) ListEntries(ctx context.Context, accountID string, params pagination.Params) (*EntryPage, error) {
	id, err := accounts.ParseAccountID(accountID)
	if err != nil {
		return nil, err
	}

	if _, err := s.accounts.Get(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accounts.NotFound(accountID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorageUnavailable, err, "loading account")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	entries, err := s.repo.ListByAccountID(ctx, id, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorageUnavailable, err, "listing ledger entries")
	}

	page := &EntryPage{Entries: entries}
	if len(entries) > limit {
		page.Entries = entries[:limit]
		last := page.Entries[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}
