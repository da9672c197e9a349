// Package docstore is the remote document store consumed by the mirror: collections of JSON
// documents addressed by id, with simple equality queries.
package docstore

import (
	"context"
	stderrors "errors"
)

// Collections used by the mirror and the admin listings.
const (
	CollectionUsers   = "users"
	CollectionPremium = "premium"
	CollectionActions = "statistiques"
)

// ErrNotFound is returned by UpdateDocument when the document does not exist.
var ErrNotFound = stderrors.New("docstore: document not found")

type Document struct {
	ID     string
	Fields map[string]any
}

// Query selects documents of a collection. Filters match on field equality; OrderBy names a
// top-level field.
type Query struct {
	Filters map[string]any
	OrderBy string
	Desc    bool
	Limit   int
}

type Client interface {
	GetDocument(ctx context.Context, collection, id string) (*Document, error)
	SetDocument(ctx context.Context, collection, id string, fields map[string]any) error
	UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) error
	QueryDocuments(ctx context.Context, collection string, q Query) ([]Document, error)
}
