package repositories

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ps-vitor/immo-sys/backend/internal/domain"
)

// MemoryPropertyRepository keeps documents in process memory. Used for dry runs and tests.
type MemoryPropertyRepository struct {
	mu   sync.RWMutex
	docs []domain.PropertyDocument
	now  func() time.Time
}

func NewMemoryPropertyRepository(seed ...domain.PropertyDocument) *MemoryPropertyRepository {
	return &MemoryPropertyRepository{docs: append([]domain.PropertyDocument(nil), seed...), now: time.Now}
}

func (r *MemoryPropertyRepository) Create(_ context.Context, doc domain.PropertyDocument) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.ID == doc.ID {
			return "", fmt.Errorf("document %s already exists", doc.ID)
		}
	}
	r.docs = append(r.docs, doc)
	return doc.ID, nil
}

func (r *MemoryPropertyRepository) FindAll(_ context.Context) ([]domain.PropertyDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]domain.PropertyDocument(nil), r.docs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryPropertyRepository) FindByReference(_ context.Context, refOrID string) (domain.PropertyDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.docs {
		if matchesTarget(d, refOrID) {
			return d, nil
		}
	}
	return domain.PropertyDocument{}, fmt.Errorf("property %q: %w", refOrID, ErrNotFound)
}

func (r *MemoryPropertyRepository) Apply(_ context.Context, mutations []Mutation) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := append([]domain.PropertyDocument(nil), r.docs...)
	for _, m := range mutations {
		idx := -1
		for i, d := range next {
			if matchesTarget(d, m.Target) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return 0, fmt.Errorf("property %q: %w", m.Target, ErrNotFound)
		}
		switch m.Op {
		case OpPatch:
			m.Patch.apply(&next[idx])
			next[idx].UpdatedAt = r.now()
		case OpDelete:
			next = append(next[:idx], next[idx+1:]...)
		default:
			return 0, fmt.Errorf("unknown mutation op %d", m.Op)
		}
	}
	r.docs = next
	return len(mutations), nil
}

// MemoryContentRepository serves fixed articles and pages.
type MemoryContentRepository struct {
	ArticleEntries []domain.ContentEntry
	PageEntries    []domain.ContentEntry
}

func (r *MemoryContentRepository) Articles(context.Context) ([]domain.ContentEntry, error) {
	return r.ArticleEntries, nil
}

func (r *MemoryContentRepository) Pages(context.Context) ([]domain.ContentEntry, error) {
	return r.PageEntries, nil
}

type memoryAsset struct {
	data        []byte
	contentType string
}

// MemoryAssetStore keeps uploaded binaries in memory.
type MemoryAssetStore struct {
	mu     sync.RWMutex
	seq    int
	assets map[string]memoryAsset
}

func NewMemoryAssetStore() *MemoryAssetStore {
	return &MemoryAssetStore{assets: make(map[string]memoryAsset)}
}

func (s *MemoryAssetStore) UploadAsset(_ context.Context, _ string, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := "asset-" + strconv.Itoa(s.seq)
	s.assets[id] = memoryAsset{data: data, contentType: contentType}
	return id, nil
}

func (s *MemoryAssetStore) OpenAsset(_ context.Context, id string) (*Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %q: %w", id, ErrNotFound)
	}
	return &Asset{
		ReadCloser:  io.NopCloser(bytes.NewReader(a.data)),
		ContentType: a.contentType,
		Size:        int64(len(a.data)),
	}, nil
}

// Len reports how many assets are stored.
func (s *MemoryAssetStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}
