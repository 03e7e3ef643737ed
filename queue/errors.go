package queue

import "errors"

var (
	// ErrBackendRequired is returned when a storage backend is not provided.
	ErrBackendRequired = errors.New("storage backend required")

	// ErrInvalidStage is returned when a job names a stage the queue does not serve.
	ErrInvalidStage = errors.New("invalid queue stage")

	// ErrJobNotLeased is returned when acknowledging a job whose lease is gone.
	ErrJobNotLeased = errors.New("job is not leased")

	// ErrHandlerRequired is returned when registering a nil handler.
	ErrHandlerRequired = errors.New("handler required")

	// ErrRunnerStarted is returned when mutating a runner that is already running.
	ErrRunnerStarted = errors.New("runner already started")
)
