package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	apperrors "github.com/kilianp07/trackdispatch/core/errors"
	"github.com/kilianp07/trackdispatch/core/logger"
)

// Result reports the outcome of one persistence attempt.
type Result struct {
	SnapshotID string
	Dropped    bool
	Err        error
	Duration   time.Duration
}

// Persister writes snapshots with at most one save in flight. Background
// requests arriving while a save runs are dropped, never queued.
type Persister struct {
	store   Store
	log     logger.Logger
	timeout time.Duration
	sem     *semaphore.Weighted
	wg      sync.WaitGroup

	mu       sync.Mutex
	lastErr  error
	onResult func(Result)
}

// NewPersister wraps store. A zero timeout defaults to ten seconds.
func NewPersister(store Store, log logger.Logger, timeout time.Duration) (*Persister, error) {
	if store == nil {
		return nil, fmt.Errorf("snapshot: nil store")
	}
	if log == nil {
		log = logger.Nop{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Persister{store: store, log: log, timeout: timeout, sem: semaphore.NewWeighted(1)}, nil
}

// OnResult registers a callback invoked after every attempt, including
// dropped ones.
func (p *Persister) OnResult(fn func(Result)) {
	p.mu.Lock()
	p.onResult = fn
	p.mu.Unlock()
}

// Trigger starts a background save of s and reports whether it was started.
func (p *Persister) Trigger(s Snapshot) bool {
	if !p.sem.TryAcquire(1) {
		p.log.Debugf("snapshot %s dropped: save in progress", s.ID)
		p.report(Result{SnapshotID: s.ID.String(), Dropped: true})
		return false
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		p.save(ctx, s)
	}()
	return true
}

// Save writes s synchronously, waiting for an in-flight save to finish.
func (p *Persister) Save(ctx context.Context, s Snapshot) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return apperrors.Wrap(apperrors.KindPersistenceFailure, err, "wait for snapshot slot")
	}
	defer p.sem.Release(1)
	return p.save(ctx, s)
}

func (p *Persister) save(ctx context.Context, s Snapshot) error {
	start := time.Now()
	err := p.store.Save(ctx, s)
	if err != nil {
		err = apperrors.Wrap(apperrors.KindPersistenceFailure, err, "save snapshot").
			With("snapshot", s.ID.String())
		p.log.Errorf("snapshot %s: %v", s.ID, err)
	}
	p.mu.Lock()
	if err != nil {
		p.lastErr = err
	}
	p.mu.Unlock()
	p.report(Result{SnapshotID: s.ID.String(), Err: err, Duration: time.Since(start)})
	return err
}

func (p *Persister) report(r Result) {
	p.mu.Lock()
	fn := p.onResult
	p.mu.Unlock()
	if fn != nil {
		fn(r)
	}
}

// TakeError returns the last background failure and clears it.
func (p *Persister) TakeError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.lastErr
	p.lastErr = nil
	return err
}

// Wait blocks until background saves have finished.
func (p *Persister) Wait() { p.wg.Wait() }
