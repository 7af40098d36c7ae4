package audit

import (
	"context"
	"sync"
	"time"
)

// AsyncOptions controls buffering and batching of an AsyncStorage.
type AsyncOptions struct {
	BufferSize     int           // events queued before Store falls back to a synchronous write
	BatchSize      int           // events per write
	BatchTimeout   time.Duration // max wait before a partial batch is flushed
	StorageTimeout time.Duration // per-batch write timeout
	OnError        func(error)   // called when a background write fails
}

// AsyncStorage queues events and writes them in batches from one goroutine.
// Store returns once the event is queued, not when it is persisted.
type AsyncStorage struct {
	next  Storage
	opts  AsyncOptions
	queue chan Event
	done  chan struct{}
	wg    sync.WaitGroup

	// mu guards stopped; Store sends under the read lock so no event is
	// queued after Close has signalled the worker.
	mu      sync.RWMutex
	stopped bool
}

func NewAsyncStorage(next Storage, opts AsyncOptions) *AsyncStorage {
	if next == nil {
		panic("audit: storage cannot be nil")
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 100 * time.Millisecond
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = 5 * time.Second
	}

	s := &AsyncStorage{
		next:  next,
		opts:  opts,
		queue: make(chan Event, opts.BufferSize),
		done:  make(chan struct{}),
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

func (s *AsyncStorage) Store(ctx context.Context, events ...Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return ErrStorageNotAvailable
	}
	for i, e := range events {
		select {
		case s.queue <- e:
		default:
			// Buffer full: write the remainder synchronously rather than drop it.
			return s.next.Store(ctx, events[i:]...)
		}
	}
	return nil
}

func (s *AsyncStorage) worker() {
	defer s.wg.Done()

	batch := make([]Event, 0, s.opts.BatchSize)
	ticker := time.NewTicker(s.opts.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Detached from request contexts so a cancelled request cannot drop its events.
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.StorageTimeout)
		defer cancel()
		if err := s.next.Store(ctx, batch...); err != nil && s.opts.OnError != nil {
			s.opts.OnError(err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case e := <-s.queue:
			batch = append(batch, e)
			if len(batch) >= s.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.done:
			for {
				select {
				case e := <-s.queue:
					batch = append(batch, e)
					if len(batch) >= s.opts.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close stops accepting events and drains the queue, bounded by ctx.
func (s *AsyncStorage) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.done)
	}
	s.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
