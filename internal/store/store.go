package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"rfpdash/internal"
	"rfpdash/internal/logging"
)

// Key is the storage key the current result is persisted under.
const Key = "rfpData"

// Persister is durable key/value storage. Load returns nil, nil when the key
// is absent and Delete of an absent key is not an error.
type Persister interface {
	Load(key string) ([]byte, error)
	Save(key string, value []byte) error
	Delete(key string) error
}

type subscription struct {
	id int
	fn func(internal.RfpResult)
}

// Store holds the single current RfpResult, which always passes Validate.
// Writes are serialised and run swap, persist and notify in that order;
// subscribers are called synchronously in subscription order and must not
// call Write from inside the callback.
type Store struct {
	persister Persister
	logger    *zap.Logger

	writeMu sync.Mutex

	mu       sync.RWMutex
	current  *internal.RfpResult
	lastBlob []byte
	subs     []subscription
	nextID   int
}

// Open builds a store over persister and restores any previously saved result.
// A nil persister keeps the store in memory only.
func Open(persister Persister, logger *zap.Logger) *Store {
	s := &Store{persister: persister, logger: logging.OrNop(logger)}
	s.Restore()
	return s
}

// Read returns a private copy of the held result, or false when nothing is held.
func (s *Store) Read() (internal.RfpResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return internal.RfpResult{}, false
	}
	return s.current.Clone(), true
}

// Write makes result current, persists it and notifies subscribers. A result
// that fails Validate is returned as an error and leaves the store untouched.
// A persistence failure is logged and does not undo the in-memory update.
func (s *Store) Write(result internal.RfpResult) error {
	if err := result.Validate(); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	held := result.Clone()
	if len(held.SalesProposal) > 0 {
		var buf bytes.Buffer
		if err := json.Compact(&buf, held.SalesProposal); err == nil {
			held.SalesProposal = buf.Bytes()
		}
	}
	blob, err := json.Marshal(held)
	if err != nil {
		s.logger.Warn("encode result for persistence", zap.Error(err))
		blob = nil
	}

	s.mu.Lock()
	s.current = &held
	s.lastBlob = blob
	s.mu.Unlock()

	if s.persister != nil {
		if blob == nil {
			// the saved copy no longer matches what is held
			if err := s.persister.Delete(Key); err != nil {
				s.logger.Warn("drop stale persisted result", zap.String("key", Key), zap.Error(err))
			}
		} else if err := s.persister.Save(Key, blob); err != nil {
			s.logger.Warn("persist result", zap.String("key", Key), zap.Error(err))
		}
	}

	s.notify(held)
	return nil
}

// Subscribe registers fn for every later write. The returned func removes it.
func (s *Store) Subscribe(fn func(internal.RfpResult)) (cancel func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Restore reloads the persisted result. Missing, undecodable or invalid data
// leaves the store empty and reports false.
func (s *Store) Restore() bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result, blob, ok := s.load()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		s.current = nil
		s.lastBlob = nil
		return false
	}
	s.current = &result
	s.lastBlob = blob
	return true
}

// reload adopts a persisted result written by someone else and notifies
// subscribers. Unusable or unchanged data is ignored.
func (s *Store) reload() bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result, blob, ok := s.load()
	if !ok {
		return false
	}

	s.mu.Lock()
	if bytes.Equal(blob, s.lastBlob) {
		s.mu.Unlock()
		return false
	}
	s.current = &result
	s.lastBlob = blob
	s.mu.Unlock()

	s.logger.Info("reloaded result written elsewhere", zap.String("rfp_id", result.RfpID))
	s.notify(result)
	return true
}

func (s *Store) load() (internal.RfpResult, []byte, bool) {
	if s.persister == nil {
		return internal.RfpResult{}, nil, false
	}
	blob, err := s.persister.Load(Key)
	if err != nil {
		s.logger.Warn("load persisted result", zap.String("key", Key), zap.Error(err))
		return internal.RfpResult{}, nil, false
	}
	if len(blob) == 0 {
		return internal.RfpResult{}, nil, false
	}

	var result internal.RfpResult
	if err := json.Unmarshal(blob, &result); err != nil {
		s.logger.Warn("discarding malformed persisted result", zap.String("key", Key), zap.Error(err))
		return internal.RfpResult{}, nil, false
	}
	if err := result.Validate(); err != nil {
		s.logger.Warn("discarding invalid persisted result", zap.String("key", Key), zap.Error(err))
		return internal.RfpResult{}, nil, false
	}
	return result, blob, true
}

func (s *Store) notify(result internal.RfpResult) {
	s.mu.RLock()
	subs := append([]subscription(nil), s.subs...)
	s.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(result.Clone())
	}
}
