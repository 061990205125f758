package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("opening ledger: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateAccountWithDefaultWallet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	accountID, err := store.CreateAccount(ctx, "user@example.com", 42)
	if err != nil {
		t.Fatalf("creating account: %v", err)
	}

	wallet, err := store.WalletByCurrency(ctx, accountID, "BRL")
	if err != nil {
		t.Fatalf("default BRL wallet missing: %v", err)
	}
	if wallet.Balance != 0 {
		t.Errorf("new wallet balance = %d, want 0", wallet.Balance)
	}

	account, err := store.AccountByEmail(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("looking up account: %v", err)
	}
	if account.Plan != "free" {
		t.Errorf("new account plan = %q, want free", account.Plan)
	}
}

func TestActivatePlanCreatesMissingAccount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.ActivatePlan(ctx, "new@example.com", "professional"); err != nil {
		t.Fatalf("activating plan: %v", err)
	}

	account, err := store.AccountByEmail(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("account should exist after activation: %v", err)
	}
	if account.Plan != "professional" {
		t.Errorf("plan = %q, want professional", account.Plan)
	}
}

func TestPostTransactionBalanced(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	srcAccount, err := store.CreateAccount(ctx, "src@example.com", 1)
	if err != nil {
		t.Fatalf("creating source account: %v", err)
	}
	dstAccount, err := store.CreateAccount(ctx, "dst@example.com", 2)
	if err != nil {
		t.Fatalf("creating destination account: %v", err)
	}
	src, _ := store.WalletByCurrency(ctx, srcAccount, "BRL")
	dst, _ := store.WalletByCurrency(ctx, dstAccount, "BRL")

	reference, err := store.PostTransaction(ctx, "campaign budget transfer", []Posting{
		{WalletID: src.ID, Amount: 15000, Debit: true},
		{WalletID: dst.ID, Amount: 15000, Debit: false},
	})
	if err != nil {
		t.Fatalf("posting transaction: %v", err)
	}
	if reference == "" {
		t.Error("expected a transaction reference")
	}

	srcBalance, _ := store.Balance(ctx, src.ID)
	dstBalance, _ := store.Balance(ctx, dst.ID)
	if srcBalance != -15000 {
		t.Errorf("source balance = %d, want -15000", srcBalance)
	}
	if dstBalance != 15000 {
		t.Errorf("destination balance = %d, want 15000", dstBalance)
	}
}

func TestPostTransactionConcurrentWriters(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	srcAccount, err := store.CreateAccount(ctx, "src@example.com", 1)
	if err != nil {
		t.Fatalf("creating source account: %v", err)
	}
	dstAccount, err := store.CreateAccount(ctx, "dst@example.com", 2)
	if err != nil {
		t.Fatalf("creating destination account: %v", err)
	}
	src, _ := store.WalletByCurrency(ctx, srcAccount, "BRL")
	dst, _ := store.WalletByCurrency(ctx, dstAccount, "BRL")

	const writers = 20
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.PostTransaction(ctx, "concurrent transfer", []Posting{
				{WalletID: src.ID, Amount: 100, Debit: true},
				{WalletID: dst.ID, Amount: 100, Debit: false},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent writers must queue on the write lock, got: %v", err)
		}
	}

	srcBalance, _ := store.Balance(ctx, src.ID)
	dstBalance, _ := store.Balance(ctx, dst.ID)
	if srcBalance != -writers*100 {
		t.Errorf("source balance = %d, want %d", srcBalance, -writers*100)
	}
	if dstBalance != writers*100 {
		t.Errorf("destination balance = %d, want %d", dstBalance, writers*100)
	}
}

func TestPostTransactionUnbalancedRejected(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	accountID, err := store.CreateAccount(ctx, "user@example.com", 1)
	if err != nil {
		t.Fatalf("creating account: %v", err)
	}
	wallet, _ := store.WalletByCurrency(ctx, accountID, "BRL")

	_, err = store.PostTransaction(ctx, "lopsided", []Posting{
		{WalletID: wallet.ID, Amount: 100, Debit: true},
	})
	if !errors.Is(err, ErrUnbalanced) {
		t.Fatalf("expected ErrUnbalanced, got %v", err)
	}

	balance, err := store.Balance(ctx, wallet.ID)
	if err != nil {
		t.Fatalf("reading balance: %v", err)
	}
	if balance != 0 {
		t.Errorf("rejected transaction leaked a write: balance = %d", balance)
	}
}

func TestPostTransactionMissingWalletRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	accountID, err := store.CreateAccount(ctx, "user@example.com", 1)
	if err != nil {
		t.Fatalf("creating account: %v", err)
	}
	wallet, _ := store.WalletByCurrency(ctx, accountID, "BRL")

	_, err = store.PostTransaction(ctx, "to nowhere", []Posting{
		{WalletID: wallet.ID, Amount: 500, Debit: true},
		{WalletID: 9999, Amount: 500, Debit: false},
	})
	if !errors.Is(err, ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}

	balance, _ := store.Balance(ctx, wallet.ID)
	if balance != 0 {
		t.Errorf("partial write after rollback: balance = %d", balance)
	}
}

func TestPostTransactionValidation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.PostTransaction(ctx, "empty", nil); !errors.Is(err, ErrEmptyPostings) {
		t.Errorf("expected ErrEmptyPostings, got %v", err)
	}
	if _, err := store.PostTransaction(ctx, "negative", []Posting{
		{WalletID: 1, Amount: -10, Debit: true},
	}); err == nil {
		t.Error("expected error for non-positive amount")
	}
}

func TestCreateWalletRequiresAccount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.CreateWallet(ctx, 123, "USD"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}

	accountID, err := store.CreateAccount(ctx, "user@example.com", 1)
	if err != nil {
		t.Fatalf("creating account: %v", err)
	}
	walletID, err := store.CreateWallet(ctx, accountID, "usd")
	if err != nil {
		t.Fatalf("creating wallet: %v", err)
	}

	wallet, err := store.WalletByCurrency(ctx, accountID, "USD")
	if err != nil {
		t.Fatalf("currency should be normalized to upper case: %v", err)
	}
	if wallet.ID != walletID {
		t.Errorf("wallet ID mismatch: %d != %d", wallet.ID, walletID)
	}
}
