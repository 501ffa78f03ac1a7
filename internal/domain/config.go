package domain

import "context"

// ConfigStore persists named configuration documents. Documents are the
// stripped wire form of a configurable.
type ConfigStore interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Store(ctx context.Context, name string, data []byte) error
}
