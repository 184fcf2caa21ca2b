package transfer_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidobi/bank-ledger/internal/domain"
	"github.com/davidobi/bank-ledger/internal/repository"
	"github.com/davidobi/bank-ledger/internal/service/transfer"
	"github.com/davidobi/bank-ledger/internal/testutil"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newService(t *testing.T, db *sql.DB, policy transfer.Policy) *transfer.Service {
	t.Helper()
	return transfer.NewService(
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewLedgerRepository(db),
		db,
		policy,
	)
}

func strictPolicy() transfer.Policy {
	return transfer.Policy{
		RejectSelfTransfer:   true,
		EnforceCurrencyMatch: true,
		EnforceAccountStatus: true,
	}
}

func TestDeposit_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(t, db, strictPolicy())
	ctx := context.Background()

	acct := testutil.SeedAccount(t, db, "user_1", "checking", "USD")

	txn, err := svc.Deposit(ctx, transfer.DepositRequest{
		AccountID:   acct.ID,
		Amount:      dec("100.0000"),
		Description: "initial deposit",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeDeposit, txn.Type)
	assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)

	assert.True(t, testutil.GetBalance(t, db, acct.ID).Equal(dec("100.0000")))
	assert.Equal(t, 1, testutil.CountEntries(t, db, acct.ID))
}

func TestDeposit_AccountNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(t, db, strictPolicy())

	_, err := svc.Deposit(context.Background(), transfer.DepositRequest{
		AccountID: uuid.New(),
		Amount:    dec("50"),
	})

	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Equal(t, 0, testutil.CountTransactions(t, db))
}

func TestDeposit_FrozenAccountRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(t, db, strictPolicy())

	acct := testutil.SeedAccount(t, db, "user_1", "checking", "USD")
	testutil.SetAccountStatus(t, db, acct.ID, domain.AccountStatusFrozen)

	_, err := svc.Deposit(context.Background(), transfer.DepositRequest{
		AccountID: acct.ID,
		Amount:    dec("50"),
	})

	require.ErrorIs(t, err, domain.ErrAccountFrozen)
	assert.Equal(t, 0, testutil.CountEntries(t, db, acct.ID))
}

func TestWithdraw_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(t, db, strictPolicy())
	ctx := context.Background()

	acct := testutil.SeedAccount(t, db, "user_1", "checking", "USD")
	testutil.SeedDeposit(t, db, acct.ID, dec("100.0000"))

	txn, err := svc.Withdraw(ctx, transfer.WithdrawRequest{
		AccountID:   acct.ID,
		Amount:      dec("30.0000"),
		Description: "atm withdrawal",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeWithdrawal, txn.Type)
	assert.True(t, testutil.GetBalance(t, db, acct.ID).Equal(dec("70.0000")))
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(t, db, strictPolicy())

	acct := testutil.SeedAccount(t, db, "user_1", "checking", "USD")
	testutil.SeedDeposit(t, db, acct.ID, dec("20.0000"))
	txnsBefore := testutil.CountTransactions(t, db)

	_, err := svc.Withdraw(context.Background(), transfer.WithdrawRequest{
		AccountID: acct.ID,
		Amount:    dec("20.0001"),
	})

	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.True(t, testutil.GetBalance(t, db, acct.ID).Equal(dec("20.0000")))
	assert.Equal(t, txnsBefore, testutil.CountTransactions(t, db))
}

func TestTransfer_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(t, db, strictPolicy())
	ctx := context.Background()

	src := testutil.SeedAccount(t, db, "user_1", "checking", "USD")
	dst := testutil.SeedAccount(t, db, "user_2", "savings", "USD")
	testutil.SeedDeposit(t, db, src.ID, dec("100.0000"))

	txn, err := svc.Transfer(ctx, transfer.TransferRequest{
		SourceAccountID:      src.ID,
		DestinationAccountID: dst.ID,
		Amount:               dec("40.0000"),
		Description:          "rent",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeTransfer, txn.Type)
	assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)

	assert.True(t, testutil.GetBalance(t, db, src.ID).Equal(dec("60.0000")))
	assert.True(t, testutil.GetBalance(t, db, dst.ID).Equal(dec("40.0000")))
}

func TestTransfer_EntriesSumToZero(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(t, db, strictPolicy())
	ctx := context.Background()

	src := testutil.SeedAccount(t, db, "user_1", "checking", "USD")
	dst := testutil.SeedAccount(t, db, "user_2", "savings", "USD")
	testutil.SeedDeposit(t, db, src.ID, dec("100.0000"))

	txn, err := svc.Transfer(ctx, transfer.TransferRequest{
		SourceAccountID:      src.ID,
		DestinationAccountID: dst.ID,
		Amount:               dec("25.5000"),
	})
	require.NoError(t, err)

	got, entries, err := svc.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, got.ID)
	require.Len(t, entries, 2)

	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	assert.True(t, sum.IsZero(), "transfer entries must sum to zero, got %s", sum)
}

func TestTransfer_OverdraftRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(t, db, strictPolicy())

	src := testutil.SeedAccount(t, db, "user_1", "checking", "USD")
	dst := testutil.SeedAccount(t, db, "user_2", "savings", "USD")
	testutil.SeedDeposit(t, db, src.ID, dec("100.0000"))
	txnsBefore := testutil.CountTransactions(t, db)

	_, err := svc.Transfer(context.Background(), transfer.TransferRequest{
		SourceAccountID:      src.ID,
		DestinationAccountID: dst.ID,
		Amount:               dec("150.0000"),
	})

	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.True(t, testutil.GetBalance(t, db, src.ID).Equal(dec("100.0000")))
	assert.True(t, testutil.GetBalance(t, db, dst.ID).IsZero())
	assert.Equal(t, txnsBefore, testutil.CountTransactions(t, db), "failed transfer must not persist a transaction")
	assert.Equal(t, 0, testutil.CountEntries(t, db, dst.ID))
}

func TestTransfer_AccountNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(t, db, strictPolicy())

	dst := testutil.SeedAccount(t, db, "user_2", "savings", "USD")
	txnsBefore := testutil.CountTransactions(t, db)

	_, err := svc.Transfer(context.Background(), transfer.TransferRequest{
		SourceAccountID:      uuid.New(),
		DestinationAccountID: dst.ID,
		Amount:               dec("10.0000"),
	})

	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Equal(t, txnsBefore, testutil.CountTransactions(t, db))
}

func TestTransfer_SelfTransferRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(t, db, strictPolicy())

	acct := testutil.SeedAccount(t, db, "user_1", "checking", "USD")
	testutil.SeedDeposit(t, db, acct.ID, dec("100.0000"))

	_, err := svc.Transfer(context.Background(), transfer.TransferRequest{
		SourceAccountID:      acct.ID,
		DestinationAccountID: acct.ID,
		Amount:               dec("10.0000"),
	})

	require.ErrorIs(t, err, domain.ErrSelfTransfer)
	assert.True(t, testutil.GetBalance(t, db, acct.ID).Equal(dec("100.0000")))
}

func TestTransfer_SelfTransferAllowedWhenPolicyOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(t, db, transfer.Policy{})
	ctx := context.Background()

	acct := testutil.SeedAccount(t, db, "user_1", "checking", "USD")
	testutil.SeedDeposit(t, db, acct.ID, dec("100.0000"))

	_, err := svc.Transfer(ctx, transfer.TransferRequest{
		SourceAccountID:      acct.ID,
		DestinationAccountID: acct.ID,
		Amount:               dec("10.0000"),
	})

	require.NoError(t, err)
	// Debit and credit land on the same account and cancel out.
	assert.True(t, testutil.GetBalance(t, db, acct.ID).Equal(dec("100.0000")))
	assert.Equal(t, 3, testutil.CountEntries(t, db, acct.ID))
}

func TestTransfer_CurrencyMismatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(t, db, strictPolicy())

	src := testutil.SeedAccount(t, db, "user_1", "checking", "USD")
	dst := testutil.SeedAccount(t, db, "user_2", "savings", "EUR")
	testutil.SeedDeposit(t, db, src.ID, dec("100.0000"))

	_, err := svc.Transfer(context.Background(), transfer.TransferRequest{
		SourceAccountID:      src.ID,
		DestinationAccountID: dst.ID,
		Amount:               dec("10.0000"),
	})

	require.ErrorIs(t, err, domain.ErrCurrencyMismatch)
	assert.True(t, testutil.GetBalance(t, db, src.ID).Equal(dec("100.0000")))
}

func TestTransfer_FrozenSourceRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(t, db, strictPolicy())

	src := testutil.SeedAccount(t, db, "user_1", "checking", "USD")
	dst := testutil.SeedAccount(t, db, "user_2", "savings", "USD")
	testutil.SeedDeposit(t, db, src.ID, dec("100.0000"))
	testutil.SetAccountStatus(t, db, src.ID, domain.AccountStatusFrozen)

	_, err := svc.Transfer(context.Background(), transfer.TransferRequest{
		SourceAccountID:      src.ID,
		DestinationAccountID: dst.ID,
		Amount:               dec("10.0000"),
	})

	require.ErrorIs(t, err, domain.ErrAccountFrozen)
	assert.True(t, testutil.GetBalance(t, db, src.ID).Equal(dec("100.0000")))
}

// Four concurrent 40.0000 transfers against a 100.0000 balance: the row lock
// serializes them, so exactly two commit and two observe insufficient funds.
func TestTransfer_ConcurrentOverdraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(t, db, strictPolicy())
	ctx := context.Background()

	src := testutil.SeedAccount(t, db, "user_1", "checking", "USD")
	dst := testutil.SeedAccount(t, db, "user_2", "savings", "USD")
	testutil.SeedDeposit(t, db, src.ID, dec("100.0000"))

	const attempts = 4
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transfer(ctx, transfer.TransferRequest{
				SourceAccountID:      src.ID,
				DestinationAccountID: dst.ID,
				Amount:               dec("40.0000"),
				Description:          "concurrent transfer",
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
			failures++
		}
	}

	assert.Equal(t, 2, successes, "exactly two transfers should succeed")
	assert.Equal(t, 2, failures, "exactly two transfers should fail")

	assert.True(t, testutil.GetBalance(t, db, src.ID).Equal(dec("20.0000")),
		"source balance must be 20.0000, never negative")
	assert.True(t, testutil.GetBalance(t, db, dst.ID).Equal(dec("80.0000")))
}

// Opposite-direction transfers between the same pair must not deadlock:
// locks are acquired in UUID order, not request order.
func TestTransfer_OppositeDirectionsNoDeadlock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(t, db, strictPolicy())
	ctx := context.Background()

	a := testutil.SeedAccount(t, db, "user_1", "checking", "USD")
	b := testutil.SeedAccount(t, db, "user_2", "checking", "USD")
	testutil.SeedDeposit(t, db, a.ID, dec("500.0000"))
	testutil.SeedDeposit(t, db, b.ID, dec("500.0000"))

	const rounds = 20
	var wg sync.WaitGroup
	errs := make(chan error, rounds*2)

	for range rounds {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.Transfer(ctx, transfer.TransferRequest{
				SourceAccountID: a.ID, DestinationAccountID: b.ID, Amount: dec("1.0000"),
			})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := svc.Transfer(ctx, transfer.TransferRequest{
				SourceAccountID: b.ID, DestinationAccountID: a.ID, Amount: dec("1.0000"),
			})
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// Equal flows in both directions leave both balances where they started.
	assert.True(t, testutil.GetBalance(t, db, a.ID).Equal(dec("500.0000")))
	assert.True(t, testutil.GetBalance(t, db, b.ID).Equal(dec("500.0000")))
}

func TestGetBalance_IdempotentReads(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	acct := testutil.SeedAccount(t, db, "user_1", "checking", "USD")
	testutil.SeedDeposit(t, db, acct.ID, dec("42.5000"))

	ledger := repository.NewLedgerRepository(db)

	first, err := ledger.SumByAccount(ctx, acct.ID)
	require.NoError(t, err)
	second, err := ledger.SumByAccount(ctx, acct.ID)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.True(t, first.Equal(dec("42.5000")))
}

func TestBalance_IsSignedSumOfAllEntries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(t, db, strictPolicy())
	ctx := context.Background()

	acct := testutil.SeedAccount(t, db, "user_1", "checking", "USD")
	other := testutil.SeedAccount(t, db, "user_2", "savings", "USD")

	_, err := svc.Deposit(ctx, transfer.DepositRequest{AccountID: acct.ID, Amount: dec("100.0000")})
	require.NoError(t, err)
	_, err = svc.Deposit(ctx, transfer.DepositRequest{AccountID: acct.ID, Amount: dec("0.2500")})
	require.NoError(t, err)
	_, err = svc.Withdraw(ctx, transfer.WithdrawRequest{AccountID: acct.ID, Amount: dec("30.1000")})
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, transfer.TransferRequest{
		SourceAccountID: acct.ID, DestinationAccountID: other.ID, Amount: dec("15.0500"),
	})
	require.NoError(t, err)

	assert.True(t, testutil.GetBalance(t, db, acct.ID).Equal(dec("55.1000")))
	assert.True(t, testutil.GetBalance(t, db, other.ID).Equal(dec("15.0500")))
}
