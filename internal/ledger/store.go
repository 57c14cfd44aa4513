package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store owns every user record. All reads and writes go through its
// methods; mutations are serialized by one mutex and the full snapshot
// is flushed to disk before the mutating call returns.
type Store struct {
	mu        sync.Mutex
	path      string
	users     map[string]*UserRecord
	byPayment map[string]string // paymentID -> owning userID
	log       *zap.Logger
}

// Open loads the snapshot at path. A missing file starts an empty store
// and creates it; a corrupt file starts an empty store and logs the
// condition. Open never fails the boot.
func Open(path string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Store{
		path:      path,
		users:     make(map[string]*UserRecord),
		byPayment: make(map[string]string),
		log:       log,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warn("ledger: cannot create data directory", zap.Error(err))
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.persistLocked()
		return s
	}
	if err != nil {
		log.Warn("ledger: snapshot unreadable, starting empty", zap.Error(err))
		return s
	}

	if err := json.Unmarshal(raw, &s.users); err != nil {
		log.Warn("ledger: snapshot corrupt, starting empty", zap.Error(err))
		s.users = make(map[string]*UserRecord)
		return s
	}

	for uid, rec := range s.users {
		if rec.PendingPayments == nil {
			rec.PendingPayments = make(map[string]*PendingPayment)
		}
		for pid, p := range rec.PendingPayments {
			p.PaymentID = pid
			p.UserID = uid
			s.byPayment[pid] = uid
		}
	}

	return s
}

func (s *Store) getOrCreateLocked(userID string) *UserRecord {
	if rec, ok := s.users[userID]; ok {
		return rec
	}
	rec := &UserRecord{
		PendingPayments: make(map[string]*PendingPayment),
		PaymentHistory:  []LedgerEntry{},
	}
	s.users[userID] = rec
	return rec
}

// GetOrCreateUser returns the record for userID, creating a zero-balance
// one on first sight. The same instance is returned for the lifetime of
// the process; treat it as a read-only view and mutate via the Store.
func (s *Store) GetOrCreateUser(userID string) *UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.users[userID]; ok {
		return rec
	}
	rec := s.getOrCreateLocked(userID)
	s.persistLocked()
	return rec
}

// CreditBalance adds amount to the user's balance and, when paymentID is
// non-empty, appends a history entry tagged with it.
func (s *Store) CreditBalance(userID string, amount float64, paymentID string) (float64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.getOrCreateLocked(userID)
	rec.Balance += amount

	if paymentID != "" {
		rec.PaymentHistory = append(rec.PaymentHistory, LedgerEntry{
			Amount:    amount,
			PaymentID: paymentID,
			Timestamp: time.Now().UTC(),
			Type:      EntryTypeCryptoDeposit,
		})
	}

	s.persistLocked()
	return rec.Balance, nil
}

// AddPending inserts the payment into the user's pending set. Payment
// ids are unique across the whole store, not just per user.
func (s *Store) AddPending(userID string, p PendingPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byPayment[p.PaymentID]; exists {
		return ErrDuplicatePaymentID
	}

	rec := s.getOrCreateLocked(userID)
	p.UserID = userID
	rec.PendingPayments[p.PaymentID] = &p
	s.byPayment[p.PaymentID] = userID

	s.persistLocked()
	return nil
}

// PeekPending looks the payment up without removing it.
func (s *Store) PeekPending(paymentID string) (string, PendingPayment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid, ok := s.byPayment[paymentID]
	if !ok {
		return "", PendingPayment{}, false
	}
	p := s.users[uid].PendingPayments[paymentID]
	return uid, *p, true
}

// RemovePending removes the payment from whichever user owns it and
// returns the owner and the entry.
func (s *Store) RemovePending(paymentID string) (string, PendingPayment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid, ok := s.byPayment[paymentID]
	if !ok {
		return "", PendingPayment{}, false
	}

	p := s.users[uid].PendingPayments[paymentID]
	delete(s.users[uid].PendingPayments, paymentID)
	delete(s.byPayment, paymentID)

	s.persistLocked()
	return uid, *p, true
}

// ListPending snapshots every user's pending set, oldest first.
func (s *Store) ListPending() []PendingPayment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []PendingPayment
	for _, rec := range s.users {
		for _, p := range rec.PendingPayments {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Balance reports the user's balance without creating a record.
func (s *Store) Balance(userID string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return 0, false
	}
	return rec.Balance, true
}

// History returns a copy of the user's ledger entries.
func (s *Store) History(userID string) []LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return nil
	}
	out := make([]LedgerEntry, len(rec.PaymentHistory))
	copy(out, rec.PaymentHistory)
	return out
}

// persistLocked flushes the full snapshot. Write failures are logged and
// swallowed: the in-memory state is the source of truth and the file is
// a recovery snapshot.
func (s *Store) persistLocked() {
	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		s.log.Error("ledger: snapshot marshal failed", zap.Error(err))
		return
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.log.Error("ledger: snapshot write failed", zap.Error(err))
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.log.Error("ledger: snapshot rename failed", zap.Error(err))
	}
}
