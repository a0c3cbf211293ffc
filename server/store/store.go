package store

import (
	"context"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Versifine/threadboard/server/internal/logger"
)

// WatchPolicy decides whether random selection records what it returned.
type WatchPolicy int

const (
	// WatchNever leaves the watched set untouched; repeated calls, and draws
	// within one call, may return the same thread.
	WatchNever WatchPolicy = iota
	// WatchOnPick adds every returned thread to the watched set.
	WatchOnPick
)

// ActivityEvent is published after an activity entry has been persisted.
type ActivityEvent struct {
	UserID int            `json:"userId"`
	Feed   string         `json:"feed"`
	Entry  *ActivityEntry `json:"entry,omitempty"`
	// Follower is set for follow events.
	Follower int   `json:"follower,omitempty"`
	At       int64 `json:"at"`
}

const (
	FeedThisUser   = "thisUser"
	FeedOtherUsers = "otherUsers"
	FeedFollows    = "follows"
)

// Notifier receives activity events. Publish must not block.
type Notifier interface {
	Publish(event ActivityEvent)
}

// Store owns the document. Every exported method runs under one mutex, and
// every mutation updates all affected tables and persists before returning.
type Store struct {
	mu        sync.Mutex
	doc       *Document
	persister Persister

	scheme      CredentialScheme
	watchPolicy WatchPolicy
	imagePrefix string
	now         func() time.Time
	rng         *rand.Rand
	notifier    Notifier
}

type Option func(*Store)

func WithCredentialScheme(scheme CredentialScheme) Option {
	return func(s *Store) { s.scheme = scheme }
}

func WithWatchPolicy(policy WatchPolicy) Option {
	return func(s *Store) { s.watchPolicy = policy }
}

// WithImagePrefix sets the public path uploaded image names are joined to.
func WithImagePrefix(prefix string) Option {
	return func(s *Store) { s.imagePrefix = prefix }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithRand(rng *rand.Rand) Option {
	return func(s *Store) { s.rng = rng }
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// Open loads the document from p, starting empty when nothing was saved yet.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	doc, err := p.Load(ctx)
	switch {
	case errors.Is(err, ErrNoDocument):
		doc = NewDocument()
	case err != nil:
		return nil, errors.Wrap(err, "load document")
	}
	doc.normalize()
	doc.seedSequences()

	seed := uint64(time.Now().UnixNano())
	s := &Store{
		doc:         doc,
		persister:   p,
		scheme:      PlaintextScheme{},
		imagePrefix: DefaultImagePrefix,
		now:         time.Now,
		rng:         rand.New(rand.NewPCG(seed, seed>>1)),
	}
	for _, opt := range opts {
		opt(s)
	}

	logger.Info("store opened",
		zap.Int("users", len(doc.Users)),
		zap.Int("threads", len(doc.Threads.Threads)),
		zap.Int("replies", len(doc.Threads.Replies)),
	)
	return s, nil
}

// Close releases the persister when it holds a connection.
func (s *Store) Close() error {
	if c, ok := s.persister.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// commit persists the document. The in-memory change is kept even when the
// write fails; the error goes back to the caller.
func (s *Store) commit(ctx context.Context, op string) error {
	if err := s.persister.Save(ctx, s.doc); err != nil {
		logger.Error("persist document", zap.String("op", op), zap.Error(err))
		return errors.Wrapf(err, "%s: persist", op)
	}
	return nil
}

func (s *Store) publish(events []ActivityEvent) {
	if s.notifier == nil {
		return
	}
	for _, ev := range events {
		s.notifier.Publish(ev)
	}
}

func (s *Store) stamp() Timestamps {
	return stampAt(s.now())
}

// Snapshot returns an encoded copy of the document.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return encodeDocument(s.doc)
}
