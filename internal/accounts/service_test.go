package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clipforge/quota-service/pkg/config"
	"github.com/clipforge/quota-service/pkg/db/models"
	"github.com/clipforge/quota-service/pkg/enums"
	pkgerrors "github.com/clipforge/quota-service/pkg/errors"
)

type stubAccountsRepo struct {
	accounts  map[uuid.UUID]*models.Account
	createErr error
	getErr    error
	creates   int
}

func newStubAccountsRepo() *stubAccountsRepo {
	return &stubAccountsRepo{accounts: make(map[uuid.UUID]*models.Account)}
}

func (s *stubAccountsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubAccountsRepo) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	account, ok := s.accounts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *stubAccountsRepo) Create(ctx context.Context, account *models.Account) error {
	s.creates++
	if s.createErr != nil {
		return s.createErr
	}
	copied := *account
	s.accounts[account.ID] = &copied
	return nil
}

func (s *stubAccountsRepo) CompareAndSwap(ctx context.Context, id uuid.UUID, expectedVersion, balanceSeconds int64) (bool, error) {
	panic("not implemented")
}

func testQuotaConfig() config.QuotaConfig {
	return config.QuotaConfig{
		FreeStartingSeconds:       3600,
		ProStartingSeconds:        36000,
		EnterpriseStartingSeconds: 360000,
	}
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, testQuotaConfig(), nil)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected coded error %s got %v", code, err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s got %s", code, typed.Code())
	}
}

func TestEnsureAccountSeedsStartingBalance(t *testing.T) {
	repo := newStubAccountsRepo()
	svc := newTestService(t, repo)

	id := uuid.New()
	account, err := svc.EnsureAccount(context.Background(), id.String(), enums.PlanTierFree)
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if account.BalanceSeconds != 3600 {
		t.Fatalf("expected free tier to start with 3600 got %d", account.BalanceSeconds)
	}
	if account.Version != 1 {
		t.Fatalf("expected fresh account at version 1 got %d", account.Version)
	}

	pro, err := svc.EnsureAccount(context.Background(), uuid.NewString(), enums.PlanTierPro)
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if pro.BalanceSeconds != 36000 {
		t.Fatalf("expected pro tier to start with 36000 got %d", pro.BalanceSeconds)
	}
}

func TestEnsureAccountIdempotent(t *testing.T) {
	repo := newStubAccountsRepo()
	svc := newTestService(t, repo)

	id := uuid.New()
	first, err := svc.EnsureAccount(context.Background(), id.String(), enums.PlanTierFree)
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}

	// Drain the balance out of band; a repeat ensure must not re-seed it.
	repo.accounts[id].BalanceSeconds = 5

	second, err := svc.EnsureAccount(context.Background(), id.String(), enums.PlanTierFree)
	if err != nil {
		t.Fatalf("repeat ensure failed: %v", err)
	}
	if second.BalanceSeconds != 5 {
		t.Fatalf("expected existing record untouched got %d", second.BalanceSeconds)
	}
	if first.ID != second.ID {
		t.Fatal("expected the same account record")
	}
	if repo.creates != 1 {
		t.Fatalf("expected a single create got %d", repo.creates)
	}
}

func TestEnsureAccountCreateRace(t *testing.T) {
	id := uuid.New()
	winner := &models.Account{
		ID:             id,
		PlanTier:       enums.PlanTierPro,
		BalanceSeconds: 123,
		Version:        4,
	}

	// Losing the insert race: the unique violation surfaces and the
	// concurrently created record appears on the re-read.
	svc := newTestService(t, &raceRepo{winner: winner})

	account, err := svc.EnsureAccount(context.Background(), id.String(), enums.PlanTierFree)
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if account.BalanceSeconds != 123 || account.Version != 4 {
		t.Fatalf("expected the first writer's record got %+v", account)
	}
}

// raceRepo reports not-found on the first read, fails the insert with a unique
// violation, then serves the winner's record.
type raceRepo struct {
	winner *models.Account
	reads  int
}

func (r *raceRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *raceRepo) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	r.reads++
	if r.reads == 1 {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *r.winner
	return &copied, nil
}

func (r *raceRepo) Create(ctx context.Context, account *models.Account) error {
	return errors.New("duplicate key value violates unique constraint \"accounts_pkey\"")
}

func (r *raceRepo) CompareAndSwap(ctx context.Context, id uuid.UUID, expectedVersion, balanceSeconds int64) (bool, error) {
	panic("not implemented")
}

func TestEnsureAccountUnknownTier(t *testing.T) {
	svc := newTestService(t, newStubAccountsRepo())

	_, err := svc.EnsureAccount(context.Background(), uuid.NewString(), enums.PlanTier("platinum"))
	assertCode(t, err, pkgerrors.CodeUnknownPlanTier)
}

func TestEnsureAccountInvalidID(t *testing.T) {
	svc := newTestService(t, newStubAccountsRepo())

	_, err := svc.EnsureAccount(context.Background(), "", enums.PlanTierFree)
	assertCode(t, err, pkgerrors.CodeInvalidAccountID)

	_, err = svc.EnsureAccount(context.Background(), "abc-123", enums.PlanTierFree)
	assertCode(t, err, pkgerrors.CodeInvalidAccountID)
}

func TestGetAccountNotFound(t *testing.T) {
	svc := newTestService(t, newStubAccountsRepo())

	_, err := svc.GetAccount(context.Background(), uuid.NewString())
	assertCode(t, err, pkgerrors.CodeAccountNotFound)
}

func TestGetAccountStorageError(t *testing.T) {
	repo := newStubAccountsRepo()
	repo.getErr = errors.New("read tcp: connection reset by peer")
	svc := newTestService(t, repo)

	_, err := svc.GetAccount(context.Background(), uuid.NewString())
	assertCode(t, err, pkgerrors.CodeStorageUnavailable)
}
