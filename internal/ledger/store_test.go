package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.json")
	return Open(path, nil), path
}

func pending(id, uid string, amount float64) PendingPayment {
	return PendingPayment{
		PaymentID:   id,
		UserID:      uid,
		PriceAmount: amount,
		PayCurrency: "btc",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestGetOrCreateUserStartsAtZero(t *testing.T) {
	s, _ := tempStore(t)

	rec := s.GetOrCreateUser("u1")
	if rec.Balance != 0 {
		t.Fatalf("new user balance = %v, want 0", rec.Balance)
	}
	if len(rec.PendingPayments) != 0 || len(rec.PaymentHistory) != 0 {
		t.Fatalf("new user record not empty: %+v", rec)
	}

	if again := s.GetOrCreateUser("u1"); again != rec {
		t.Fatal("GetOrCreateUser returned a second instance for the same id")
	}
}

func TestCreditBalance(t *testing.T) {
	s, _ := tempStore(t)

	s.GetOrCreateUser("u1")
	bal, err := s.CreditBalance("u1", 25.00, "")
	if err != nil {
		t.Fatalf("credit err: %v", err)
	}
	if bal != 25.00 {
		t.Fatalf("balance = %v, want 25.00", bal)
	}
	if got := s.History("u1"); len(got) != 0 {
		t.Fatalf("credit without payment id appended history: %+v", got)
	}

	bal, err = s.CreditBalance("u1", 10, "p1")
	if err != nil {
		t.Fatalf("credit err: %v", err)
	}
	if bal != 35.00 {
		t.Fatalf("balance = %v, want 35.00", bal)
	}

	hist := s.History("u1")
	if len(hist) != 1 {
		t.Fatalf("history length = %d, want 1", len(hist))
	}
	if hist[0].PaymentID != "p1" || hist[0].Amount != 10 || hist[0].Type != EntryTypeCryptoDeposit {
		t.Fatalf("unexpected history entry: %+v", hist[0])
	}
}

func TestCreditBalanceRejectsNonPositiveAmount(t *testing.T) {
	s, _ := tempStore(t)

	for _, amount := range []float64{0, -5} {
		if _, err := s.CreditBalance("u1", amount, ""); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("credit %v: err = %v, want ErrInvalidAmount", amount, err)
		}
	}
	if bal, _ := s.Balance("u1"); bal != 0 {
		t.Fatalf("balance mutated by rejected credit: %v", bal)
	}
}

func TestAddPendingUniqueAcrossUsers(t *testing.T) {
	s, _ := tempStore(t)

	if err := s.AddPending("u1", pending("p1", "u1", 10)); err != nil {
		t.Fatalf("first AddPending err: %v", err)
	}

	// Same user.
	if err := s.AddPending("u1", pending("p1", "u1", 10)); !errors.Is(err, ErrDuplicatePaymentID) {
		t.Fatalf("duplicate same-user: err = %v, want ErrDuplicatePaymentID", err)
	}
	// Different user.
	if err := s.AddPending("u2", pending("p1", "u2", 99)); !errors.Is(err, ErrDuplicatePaymentID) {
		t.Fatalf("duplicate cross-user: err = %v, want ErrDuplicatePaymentID", err)
	}

	uid, p, ok := s.PeekPending("p1")
	if !ok || uid != "u1" || p.PriceAmount != 10 {
		t.Fatalf("original entry disturbed: uid=%q p=%+v ok=%v", uid, p, ok)
	}
	if rec := s.GetOrCreateUser("u2"); len(rec.PendingPayments) != 0 {
		t.Fatalf("rejected AddPending left state on u2: %+v", rec.PendingPayments)
	}
}

func TestRemovePendingReturnsOwner(t *testing.T) {
	s, _ := tempStore(t)

	s.AddPending("u1", pending("p1", "u1", 10))
	s.AddPending("u2", pending("p2", "u2", 20))

	uid, p, ok := s.RemovePending("p2")
	if !ok {
		t.Fatal("RemovePending reported not found for tracked id")
	}
	if uid != "u2" || p.PaymentID != "p2" || p.PriceAmount != 20 {
		t.Fatalf("wrong owner/entry: uid=%q p=%+v", uid, p)
	}

	if _, _, ok := s.RemovePending("p2"); ok {
		t.Fatal("second RemovePending for same id succeeded")
	}
	if _, _, ok := s.PeekPending("p1"); !ok {
		t.Fatal("unrelated pending entry lost")
	}
}

func TestListPendingOldestFirst(t *testing.T) {
	s, _ := tempStore(t)

	older := pending("p1", "u1", 1)
	older.CreatedAt = time.Now().Add(-time.Hour)
	s.AddPending("u2", pending("p2", "u2", 2))
	s.AddPending("u1", older)

	got := s.ListPending()
	if len(got) != 2 {
		t.Fatalf("ListPending length = %d, want 2", len(got))
	}
	if got[0].PaymentID != "p1" || got[1].PaymentID != "p2" {
		t.Fatalf("unexpected order: %q then %q", got[0].PaymentID, got[1].PaymentID)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	s := Open(path, nil)
	s.CreditBalance("u1", 42.5, "p0")
	s.AddPending("u1", pending("p1", "u1", 10))

	reopened := Open(path, nil)
	if bal, ok := reopened.Balance("u1"); !ok || bal != 42.5 {
		t.Fatalf("reloaded balance = %v ok=%v, want 42.5", bal, ok)
	}
	uid, p, ok := reopened.PeekPending("p1")
	if !ok || uid != "u1" || p.PriceAmount != 10 {
		t.Fatalf("pending index not rebuilt: uid=%q p=%+v ok=%v", uid, p, ok)
	}
	if hist := reopened.History("u1"); len(hist) != 1 || hist[0].PaymentID != "p0" {
		t.Fatalf("history not reloaded: %+v", hist)
	}
}

func TestCorruptSnapshotStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := Open(path, nil)
	if _, ok := s.Balance("u1"); ok {
		t.Fatal("corrupt snapshot produced a user record")
	}

	// Store must stay usable after degrading.
	if _, err := s.CreditBalance("u1", 5, ""); err != nil {
		t.Fatalf("credit after degrade err: %v", err)
	}
	if bal, _ := Open(path, nil).Balance("u1"); bal != 5 {
		t.Fatalf("snapshot not rewritten after degrade: balance = %v", bal)
	}
}

func TestBalanceIsSumOfCredits(t *testing.T) {
	s, _ := tempStore(t)

	credits := []float64{1.5, 2.25, 40}
	var want float64
	for i, amount := range credits {
		id := ""
		if i%2 == 0 {
			id = "p" + string(rune('0'+i))
		}
		if _, err := s.CreditBalance("u1", amount, id); err != nil {
			t.Fatalf("credit err: %v", err)
		}
		want += amount
	}
	s.CreditBalance("u1", -3, "bad") // rejected, must not count

	if bal, _ := s.Balance("u1"); bal != want {
		t.Fatalf("balance = %v, want %v", bal, want)
	}
}
