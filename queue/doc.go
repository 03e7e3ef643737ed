// Package queue provides a durable, stage-partitioned job queue on BadgerDB.
//
// Jobs are partitioned by pipeline stage and delivered at-least-once: a
// dequeued job is leased for its stage timeout, and a lease that expires
// without an acknowledgement makes the job eligible for redelivery. Handlers
// must therefore be idempotent.
//
// The Runner polls the queue per stage and dispatches jobs to registered
// handlers on worker pools. A handler reports a handled failure through its
// result; only a panic or a missing handler moves the job to the failed
// registry for operator inspection.
package queue
