package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ps-vitor/immo-sys/backend/internal/domain"
)

var ErrNotFound = errors.New("alert not found")

// Alert is a saved search. Matches uses the catalogue's filter semantics.
type Alert struct {
	ID        string                `json:"id"`
	Email     string                `json:"email,omitempty"`
	Criteria  domain.SearchCriteria `json:"criteria"`
	CreatedAt time.Time             `json:"created_at"`
}

func (a Alert) Matches(p domain.PropertyDocument) bool {
	return p.Public() && a.Criteria.Matches(p)
}

// Persistence is the durable backing of a Store.
type Persistence interface {
	Load(ctx context.Context) ([]Alert, error)
	Save(ctx context.Context, alerts []Alert) error
}

// Store is an in-memory cache of alerts, written through to its persistence on every change.
type Store struct {
	mu      sync.RWMutex
	backing Persistence
	alerts  []Alert
	now     func() time.Time
}

// Open loads the current alerts from p.
func Open(ctx context.Context, p Persistence) (*Store, error) {
	alerts, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load alerts: %w", err)
	}
	return &Store{backing: p, alerts: alerts, now: time.Now}, nil
}

func (s *Store) Get() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Alert(nil), s.alerts...)
}

// Add assigns an id and creation time, then persists. On a persistence error the cache is
// left unchanged.
func (s *Store) Add(ctx context.Context, a Alert) (Alert, error) {
	a.ID = uuid.NewString()
	a.CreatedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	next := append(append([]Alert(nil), s.alerts...), a)
	if err := s.backing.Save(ctx, next); err != nil {
		return Alert{}, fmt.Errorf("save alerts: %w", err)
	}
	s.alerts = next
	return a, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		if a.ID != id {
			next = append(next, a)
		}
	}
	if len(next) == len(s.alerts) {
		return ErrNotFound
	}
	if err := s.backing.Save(ctx, next); err != nil {
		return fmt.Errorf("save alerts: %w", err)
	}
	s.alerts = next
	return nil
}

// MatchesFor returns the alerts a property satisfies.
func (s *Store) MatchesFor(p domain.PropertyDocument) []Alert {
	var out []Alert
	for _, a := range s.Get() {
		if a.Matches(p) {
			out = append(out, a)
		}
	}
	return out
}

// NewMemoryStore returns an empty store backed by MemoryPersistence.
func NewMemoryStore() *Store {
	return &Store{backing: &MemoryPersistence{}, now: time.Now}
}

// MemoryPersistence keeps alerts in memory only.
type MemoryPersistence struct {
	mu     sync.Mutex
	alerts []Alert
	Saves  int
}

func (m *MemoryPersistence) Load(context.Context) ([]Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Alert(nil), m.alerts...), nil
}

func (m *MemoryPersistence) Save(_ context.Context, alerts []Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append([]Alert(nil), alerts...)
	m.Saves++
	return nil
}

// FilePersistence stores alerts as a JSON array in a single file. A missing file is an
// empty list.
type FilePersistence struct {
	Path string
}

func (f FilePersistence) Load(context.Context) ([]Alert, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var alerts []Alert
	if err := json.Unmarshal(data, &alerts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return alerts, nil
}

// Save writes to a temp file and renames it over the target.
func (f FilePersistence) Save(_ context.Context, alerts []Alert) error {
	if alerts == nil {
		alerts = []Alert{}
	}
	data, err := json.MarshalIndent(alerts, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return err
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}
