package store

import (
	"sync"
	"time"

	"github.com/user/scribe/internal/docdb"
)

// Store is the data access layer over the document database. Multi-step
// read-modify-write sequences (claim, ExistingOptions merge) are serialized
// per category through an in-process mutex; the database itself offers no
// cross-path atomicity.
type Store struct {
	db    docdb.DB
	now   func() time.Time
	txnID TxnIDStrategy

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type Option func(*Store)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithTxnIDStrategy selects how audit transaction ids are generated.
func WithTxnIDStrategy(strategy TxnIDStrategy) Option {
	return func(s *Store) { s.txnID = strategy }
}

// NewStore creates a Store over the given document database.
func NewStore(db docdb.DB, opts ...Option) *Store {
	s := &Store{
		db:    db,
		now:   time.Now,
		txnID: TxnIDUnique,
		locks: map[string]*sync.Mutex{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying document database for wiring.
func (s *Store) DB() docdb.DB {
	return s.db
}

// Now returns the store's wall clock reading.
func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) categoryLock(category string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[category]
	if !ok {
		l = &sync.Mutex{}
		s.locks[category] = l
	}
	return l
}
