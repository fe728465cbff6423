package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clipforge/quota-service/internal/accounts"
	"github.com/clipforge/quota-service/pkg/db/models"
	pkgerrors "github.com/clipforge/quota-service/pkg/errors"
	"github.com/clipforge/quota-service/pkg/pagination"
)

type stubLedgerRepo struct {
	entries []models.LedgerEntry
	list    func(ctx context.Context, accountID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.LedgerEntry, error)
}

func (s *stubLedgerRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubLedgerRepo) Create(ctx context.Context, entry *models.LedgerEntry) error {
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *stubLedgerRepo) ListByAccountID(ctx context.Context, accountID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.LedgerEntry, error) {
	if s.list != nil {
		return s.list(ctx, accountID, limit, cursor)
	}
	if limit > len(s.entries) {
		limit = len(s.entries)
	}
	return s.entries[:limit], nil
}

type stubBalanceRepo struct {
	account *models.Account
}

func (s *stubBalanceRepo) WithTx(tx *gorm.DB) accounts.Repository { return s }

func (s *stubBalanceRepo) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	if s.account == nil || s.account.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.account, nil
}

func (s *stubBalanceRepo) Create(ctx context.Context, account *models.Account) error {
	panic("not implemented")
}

func (s *stubBalanceRepo) CompareAndSwap(ctx context.Context, id uuid.UUID, expectedVersion, balanceSeconds int64) (bool, error) {
	panic("not implemented")
}

func entryFixtures(accountID uuid.UUID, count int) []models.LedgerEntry {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	entries := make([]models.LedgerEntry, 0, count)
	for i := 0; i < count; i++ {
		entries = append(entries, models.LedgerEntry{
			ID:        uuid.New(),
			AccountID: accountID,
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		})
	}
	return entries
}

func TestListEntriesPagination(t *testing.T) {
	accountID := uuid.New()
	repo := &stubLedgerRepo{entries: entryFixtures(accountID, 4)}
	svc, err := NewService(repo, &stubBalanceRepo{account: &models.Account{ID: accountID}})
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}

	page, err := svc.ListEntries(context.Background(), accountID.String(), pagination.Params{Limit: 3})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Entries) != 3 {
		t.Fatalf("expected page of 3 got %d", len(page.Entries))
	}
	if page.NextCursor == "" {
		t.Fatal("expected a next cursor when more rows remain")
	}

	cursor, err := pagination.ParseCursor(page.NextCursor)
	if err != nil {
		t.Fatalf("cursor did not round-trip: %v", err)
	}
	last := page.Entries[2]
	if cursor.ID != last.ID || !cursor.CreatedAt.Equal(last.CreatedAt) {
		t.Fatalf("cursor should point at the last returned entry, got %+v", cursor)
	}
}

func TestListEntriesLastPage(t *testing.T) {
	accountID := uuid.New()
	repo := &stubLedgerRepo{entries: entryFixtures(accountID, 2)}
	svc, err := NewService(repo, &stubBalanceRepo{account: &models.Account{ID: accountID}})
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}

	page, err := svc.ListEntries(context.Background(), accountID.String(), pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Entries) != 2 {
		t.Fatalf("expected 2 entries got %d", len(page.Entries))
	}
	if page.NextCursor != "" {
		t.Fatalf("expected no cursor on the last page got %q", page.NextCursor)
	}
}

func TestListEntriesUnknownAccount(t *testing.T) {
	svc, err := NewService(&stubLedgerRepo{}, &stubBalanceRepo{})
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}

	_, err = svc.ListEntries(context.Background(), uuid.NewString(), pagination.Params{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeAccountNotFound {
		t.Fatalf("expected account not found got %v", err)
	}
}

func TestListEntriesBadCursor(t *testing.T) {
	accountID := uuid.New()
	svc, err := NewService(&stubLedgerRepo{}, &stubBalanceRepo{account: &models.Account{ID: accountID}})
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}

	_, err = svc.ListEntries(context.Background(), accountID.String(), pagination.Params{Cursor: "%%%not-base64%%%"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}
