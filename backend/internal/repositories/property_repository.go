package repositories

import (
	"context"
	"errors"
	"io"

	"github.com/ps-vitor/immo-sys/backend/internal/domain"
)

var ErrNotFound = errors.New("not found")

type PropertyRepository interface {
	Create(ctx context.Context, doc domain.PropertyDocument) (string, error)
	FindAll(ctx context.Context) ([]domain.PropertyDocument, error)
	// FindByReference accepts either the human reference or the document id.
	FindByReference(ctx context.Context, refOrID string) (domain.PropertyDocument, error)
	// Apply runs every mutation in one transaction and returns how many were applied.
	// An unknown target aborts the whole transaction with ErrNotFound.
	Apply(ctx context.Context, mutations []Mutation) (int, error)
}

type ContentRepository interface {
	Articles(ctx context.Context) ([]domain.ContentEntry, error)
	Pages(ctx context.Context) ([]domain.ContentEntry, error)
}

// Asset is an open asset stream. Callers must Close it.
type Asset struct {
	io.ReadCloser
	ContentType string
	Size        int64
}

type AssetStore interface {
	UploadAsset(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	OpenAsset(ctx context.Context, id string) (*Asset, error)
}

type MutationOp int

const (
	OpPatch MutationOp = iota + 1
	OpDelete
)

// Patch lists the fields bulk tooling may change. Nil fields are left untouched.
type Patch struct {
	Hidden *bool
	Status *domain.Status
}

type Mutation struct {
	Op     MutationOp
	Target string
	Patch  Patch
}

func (p Patch) apply(doc *domain.PropertyDocument) {
	if p.Hidden != nil {
		doc.Hidden = *p.Hidden
	}
	if p.Status != nil {
		doc.Status = *p.Status
	}
}

func matchesTarget(doc domain.PropertyDocument, target string) bool {
	return doc.ID == target || (doc.Reference != "" && doc.Reference == target)
}
