//go:build integration

package pgsql_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/bizledger/internal/adapters/database/pgsql"
	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/core/domain"
	portssvc "github.com/SscSPs/bizledger/internal/core/ports/services"
	"github.com/SscSPs/bizledger/internal/core/services"
	"github.com/SscSPs/bizledger/internal/dto"
	"github.com/SscSPs/bizledger/internal/platform/config"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	tenantID = "tenant-it"
	actorID  = "user-it"
)

// setupLedger starts a disposable PostgreSQL container, migrates it and wires the services on top.
func setupLedger(t *testing.T) (*pgxpool.Pool, *portssvc.ServiceContainer, map[string]string) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("bizledger"),
		tcpostgres.WithUsername("ledger"),
		tcpostgres.WithPassword("ledger"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(container))
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	migrationsDir, err := filepath.Abs("../../../../migrations")
	require.NoError(t, err)
	require.NoError(t, pgsql.RunMigrations(dsn, "file://"+migrationsDir, slog.Default()))

	pool, err := pgsql.NewPgxPool(ctx, dsn, true)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	cfg := &config.Config{PostingRunStuckAt: 15 * time.Minute}
	svc := services.NewServiceContainer(cfg, pgsql.NewRepositoryProvider(pool), domain.DefaultPostingRules(), nil)

	accounts := make(map[string]string)
	for _, a := range []struct {
		code string
		typ  domain.AccountType
	}{
		{"1000", domain.Asset}, {"1100", domain.Asset}, {"2100", domain.Liability}, {"4000", domain.Income},
	} {
		acc, err := svc.Chart.CreateAccount(ctx, tenantID, dto.CreateAccountRequest{Code: a.code, Name: "acc " + a.code, AccountType: a.typ}, actorID)
		require.NoError(t, err)
		accounts[a.code] = acc.AccountID
	}
	return pool, svc, accounts
}

func resolvedCashSale(t *testing.T, svc *portssvc.ServiceContainer) string {
	t.Helper()
	ctx := context.Background()
	day := "2024-03-01"

	set, err := svc.TransactionSet.CreateTransactionSet(ctx, tenantID, dto.CreateTransactionSetRequest{Source: domain.SourceAPI, BusinessDate: &day}, actorID)
	require.NoError(t, err)
	_, err = svc.TransactionSet.AddBusinessTransaction(ctx, tenantID, set.ID, dto.AddBusinessTransactionRequest{
		Type: "cash_sale",
		Lines: []dto.BusinessTransactionLineRequest{{
			Amount: decimal.RequireFromString("100.00"), TaxCode: "VAT_OUT", TaxAmount: decimal.RequireFromString("18.00"),
		}},
	}, actorID)
	require.NoError(t, err)
	_, err = svc.TransactionSet.SubmitTransactionSet(ctx, tenantID, set.ID, actorID)
	require.NoError(t, err)
	_, err = svc.Intent.ResolveIntent(ctx, tenantID, set.ID, actorID)
	require.NoError(t, err)
	return set.ID
}

func TestIntegration_PostAndReverse(t *testing.T) {
	pool, svc, accounts := setupLedger(t)
	ctx := context.Background()
	setID := resolvedCashSale(t, svc)

	entryID, err := svc.Kernel.Post(ctx, tenantID, setID, actorID)
	require.NoError(t, err)
	again, err := svc.Kernel.Post(ctx, tenantID, setID, actorID)
	require.NoError(t, err)
	assert.Equal(t, entryID, again)

	entry, err := svc.Journal.GetJournalEntry(ctx, tenantID, entryID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", entry.Entry.PostingDate)
	require.Len(t, entry.Lines, 3)
	assert.True(t, entry.Lines[0].Debit.Equal(decimal.RequireFromString("118")))

	asOf := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	cash, err := svc.Balance.AccountBalance(ctx, tenantID, accounts["1000"], asOf, false)
	require.NoError(t, err)
	assert.True(t, cash.DisplayBalance.Equal(decimal.NewFromInt(118)))

	err = svc.Chart.DeleteAccount(ctx, tenantID, accounts["1000"], actorID)
	assert.ErrorIs(t, err, services.ErrAccountReferenced)

	reversalID, err := svc.Reversal.ReverseOn(ctx, tenantID, entryID, "entered twice", actorID, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = svc.Reversal.Reverse(ctx, tenantID, entryID, "again", actorID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyReversed)

	cash, err = svc.Balance.AccountBalance(ctx, tenantID, accounts["1000"], asOf, false)
	require.NoError(t, err)
	assert.True(t, cash.Net.IsZero())

	page, err := svc.Journal.ListJournalEntries(ctx, tenantID, dto.ListJournalEntriesParams{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, reversalID, page.Entries[0].ID)
	require.NotNil(t, page.NextToken)
	next, err := svc.Journal.ListJournalEntries(ctx, tenantID, dto.ListJournalEntriesParams{Limit: 1, NextToken: *page.NextToken})
	require.NoError(t, err)
	require.Len(t, next.Entries, 1)
	assert.Equal(t, entryID, next.Entries[0].ID)
	assert.Nil(t, next.NextToken)

	_, err = pool.Exec(ctx, `UPDATE journal_lines SET debit = 1 WHERE journal_entry_id = $1`, entryID)
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "23001", pgErr.Code)
	_, err = pool.Exec(ctx, `DELETE FROM journal_entries WHERE id = $1`, entryID)
	assert.Error(t, err)
}

func TestIntegration_ConcurrentPostsCreateOneEntry(t *testing.T) {
	pool, svc, _ := setupLedger(t)
	setID := resolvedCashSale(t, svc)

	const callers = 8
	var wg sync.WaitGroup
	ids := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = svc.Kernel.Post(context.Background(), tenantID, setID, actorID)
		}(i)
	}
	wg.Wait()

	entryID := ""
	for i, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, apperrors.ErrPostingInProgress)
			continue
		}
		if entryID == "" {
			entryID = ids[i]
		}
		assert.Equal(t, entryID, ids[i])
	}

	var count int
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM journal_entries WHERE source_transaction_set_id = $1`, setID).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestIntegration_FailedRunAndRetry(t *testing.T) {
	_, svc, accounts := setupLedger(t)
	ctx := context.Background()
	setID := resolvedCashSale(t, svc)

	require.NoError(t, svc.Chart.DeactivateAccount(ctx, tenantID, accounts["2100"], actorID))
	_, err := svc.Kernel.Post(ctx, tenantID, setID, actorID)
	require.ErrorIs(t, err, apperrors.ErrIntentResolution)

	_, err = svc.Kernel.Post(ctx, tenantID, setID, actorID)
	require.ErrorIs(t, err, apperrors.ErrPreviousAttemptFailed)

	require.NoError(t, svc.Operator.RetryFailedRun(ctx, tenantID, setID, actorID, "vat account reactivated"))
	_, err = svc.Kernel.Post(ctx, tenantID, setID, actorID)
	require.ErrorIs(t, err, apperrors.ErrIntentResolution, "account is still inactive")
}
