package domain

import "context"

// ResultCache stores and retrieves a solve Response keyed by a fingerprint
// of its Request, so a repeated request skips the core entirely (spec.md §8
// property 10: solve is deterministic for a fixed input).
type ResultCache interface {
	Get(ctx context.Context, fingerprint string) (*Response, bool, error)
	Set(ctx context.Context, fingerprint string, resp Response) error
}
