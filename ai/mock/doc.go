// Package mock provides deterministic test doubles for the ai interfaces.
//
// The doubles allow custom behavior injection via function fields and track
// call counts for assertions. Default behavior is deterministic: the same
// input always produces the same summary or embedding vector.
package mock
