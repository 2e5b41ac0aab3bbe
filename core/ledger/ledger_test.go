package ledger

import (
	"context"
	"sync"
	"testing"

	"aibot/core/fault"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return New(NewMemoryStore())
}

func TestCreditThenDebit(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	entry, err := l.Credit(ctx, 1, 100, KindPurchase)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if entry.BalanceBefore != 0 || entry.BalanceAfter != 100 || entry.Delta != 100 {
		t.Fatalf("credit snapshot: %+v", entry)
	}

	entry, err = l.Debit(ctx, 1, 30, SpendKind("image-gen"))
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if entry.BalanceBefore != 100 || entry.BalanceAfter != 70 || entry.Delta != -30 {
		t.Fatalf("debit snapshot: %+v", entry)
	}
	if entry.Kind != "spend-image-gen" {
		t.Fatalf("kind = %s", entry.Kind)
	}
}

func TestDebitInsufficientLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	if _, err := l.Credit(ctx, 1, 10, KindPurchase); err != nil {
		t.Fatalf("credit: %v", err)
	}

	_, err := l.Debit(ctx, 1, 11, SpendKind("chat-text"))
	if !fault.IsKind(err, fault.KindInsufficientTokens) {
		t.Fatalf("err = %v, want INSUFFICIENT_TOKENS", err)
	}

	rm, err := l.Read(ctx, 1, 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if rm.TokenBalance != 10 {
		t.Fatalf("balance = %d, want unchanged 10", rm.TokenBalance)
	}
	if len(rm.LastEntries) != 1 {
		t.Fatalf("entries = %d, rejection must not write an entry", len(rm.LastEntries))
	}
}

func TestDebitValidation(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	for _, amount := range []int64{0, -5} {
		_, err := l.Debit(ctx, 1, amount, KindPurchase)
		if !fault.IsKind(err, fault.KindValidationError) {
			t.Fatalf("Debit(%d) err = %v, want VALIDATION_ERROR", amount, err)
		}
	}
}

func TestConcurrentDebitsSingleWinner(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	if _, err := l.Credit(ctx, 7, 1, KindPurchase); err != nil {
		t.Fatalf("credit: %v", err)
	}

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Debit(ctx, 7, 1, SpendKind("video-gen"))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, rejected int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case fault.IsKind(err, fault.KindInsufficientTokens):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || rejected != 1 {
		t.Fatalf("ok=%d rejected=%d, want exactly one success", ok, rejected)
	}

	rm, _ := l.Read(ctx, 7, 10)
	if rm.TokenBalance != 0 {
		t.Fatalf("balance = %d, want 0", rm.TokenBalance)
	}
}

func TestEntryChainUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	if _, err := l.Credit(ctx, 3, 1000, KindSubscriptionGrant); err != nil {
		t.Fatalf("credit: %v", err)
	}

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = l.Debit(ctx, 3, 5, SpendKind("chat-image"))
			} else {
				_, _ = l.Credit(ctx, 3, 5, KindRefund)
			}
		}(i)
	}
	wg.Wait()

	rm, err := l.Read(ctx, 3, workers+1)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	// Entries are newest first; walk the chain oldest to newest.
	entries := rm.LastEntries
	for i := len(entries) - 1; i > 0; i-- {
		older, newer := entries[i], entries[i-1]
		if older.BalanceAfter != newer.BalanceBefore {
			t.Fatalf("chain break: entry %d after=%d, entry %d before=%d",
				older.ID, older.BalanceAfter, newer.ID, newer.BalanceBefore)
		}
		if older.BalanceAfter < 0 || newer.BalanceAfter < 0 {
			t.Fatal("balance went negative")
		}
	}
	if rm.TokenBalance != entries[0].BalanceAfter {
		t.Fatalf("balance %d != newest entry after %d", rm.TokenBalance, entries[0].BalanceAfter)
	}
}

func TestReadModelLimit(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	for i := 0; i < 15; i++ {
		if _, err := l.Credit(ctx, 2, 1, KindPurchase); err != nil {
			t.Fatalf("credit: %v", err)
		}
	}
	rm, err := l.Read(ctx, 2, 5)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rm.LastEntries) != 5 {
		t.Fatalf("entries = %d, want 5", len(rm.LastEntries))
	}
	if rm.LastEntries[0].BalanceAfter != 15 {
		t.Fatalf("newest entry after = %d, want 15", rm.LastEntries[0].BalanceAfter)
	}
}
