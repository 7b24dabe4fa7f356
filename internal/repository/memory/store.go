package memory

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/absence"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/approval"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/notification"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
)

// Store holds every table in process memory. Each repository operation runs under
// the store lock, which gives the same single-statement atomicity as the SQL store.
type Store struct {
	mu            sync.RWMutex
	users         map[string]user.User
	requests      map[string]absence.AbsenceRequest
	history       []approval.Entry
	notifications map[string]*notification.Notification

	txMu sync.Mutex
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]user.User),
		requests:      make(map[string]absence.AbsenceRequest),
		notifications: make(map[string]*notification.Notification),
	}
}

// txLog collects the compensating actions of one transaction's writes
type txLog struct {
	undo []func()
}

type txKey struct{}

// recordUndo registers fn to revert a write made through ctx. Caller holds the write lock.
// Writes outside a transaction are not recorded.
func recordUndo(ctx context.Context, fn func()) {
	if log, ok := ctx.Value(txKey{}).(*txLog); ok {
		log.undo = append(log.undo, fn)
	}
}

type txManager struct {
	store *Store
}

func NewTxManager(store *Store) absence.TxManager {
	return &txManager{store: store}
}

// WithinTx serializes transactions. When fn fails only the writes made through the
// transaction context are reverted, newest first; writes made by others stay.
func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txLog); ok {
		return fn(ctx)
	}

	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	log := &txLog{}
	if err := fn(context.WithValue(ctx, txKey{}, log)); err != nil {
		m.store.mu.Lock()
		for i := len(log.undo) - 1; i >= 0; i-- {
			log.undo[i]()
		}
		m.store.mu.Unlock()
		return err
	}
	return nil
}
