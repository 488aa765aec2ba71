package ports

import "github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"

// InvariantProcessor rewrites invariant records into canonical form.
//
// Process mutates the record in place and returns it. ProcessAll maps
// Process over the slice in order and returns the same slice.
type InvariantProcessor interface {
	Process(inv *domain.Invariant) *domain.Invariant
	ProcessAll(invs []domain.Invariant) []domain.Invariant
}
