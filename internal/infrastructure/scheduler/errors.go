package scheduler

import "errors"

var (
	// ErrSchedulerRunning is returned when registering jobs after Start
	ErrSchedulerRunning = errors.New("scheduler is already running")

	// ErrJobNotFound is returned for unknown job names
	ErrJobNotFound = errors.New("job not found")

	// ErrDuplicateJob is returned when a job name is registered twice
	ErrDuplicateJob = errors.New("job already registered")

	// ErrInvalidConfig is returned when a job is missing its name, spec or function
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
