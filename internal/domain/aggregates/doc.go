// Package aggregates defines domain-facing aggregate contracts.
//
// Contracts avoid persistence/transport details and mark the write
// boundaries where cross-entity invariants are enforced atomically.
package aggregates
