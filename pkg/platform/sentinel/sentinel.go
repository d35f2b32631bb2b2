// Package sentinel defines infrastructure sentinel errors. Stores return
// these (optionally wrapped) so services can translate them into coded
// domain errors at the boundary.
//
// These represent factual states about resources, not validation failures:
//   - ErrNotFound: entity does not exist in the store
//   - ErrConflict: a uniqueness constraint or concurrent update lost the race
//   - ErrAlreadyVerified: record already left the pending state
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
package sentinel

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrAlreadyVerified = errors.New("already verified")
)
