package store

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Key identifies one entity.
type Key struct {
	EntityType string
	ID         string
}

// MemoryStore keeps CBOR snapshots of entities in memory. Entities returned
// by Get are independent of the stored copy. Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	entities map[Key][]byte
	log      *zap.Logger
}

func NewMemoryStore(log *zap.Logger) *MemoryStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemoryStore{entities: make(map[Key][]byte), log: log}
}

func (s *MemoryStore) Get(key Key) (Entity, bool, error) {
	s.mu.RLock()
	data, ok := s.entities[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	e, err := UnmarshalEntity(data)
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

func (s *MemoryStore) Set(key Key, e Entity) error {
	data, err := MarshalEntity(e)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entities[key] = data
	s.mu.Unlock()
	s.log.Debug("entity set",
		zap.String("type", key.EntityType),
		zap.String("id", key.ID),
		zap.Int("bytes", len(data)))
	return nil
}

func (s *MemoryStore) Remove(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[key]; !ok {
		return false
	}
	delete(s.entities, key)
	return true
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// Find returns every entity of the given type, ordered by ID.
func (s *MemoryStore) Find(entityType string) ([]Entity, error) {
	s.mu.RLock()
	var keys []Key
	for k := range s.entities {
		if k.EntityType == entityType {
			keys = append(keys, k)
		}
	}
	snapshots := make([][]byte, len(keys))
	sort.Slice(keys, func(i, j int) bool { return keys[i].ID < keys[j].ID })
	for i, k := range keys {
		snapshots[i] = s.entities[k]
	}
	s.mu.RUnlock()

	out := make([]Entity, len(snapshots))
	for i, data := range snapshots {
		e, err := UnmarshalEntity(data)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}
