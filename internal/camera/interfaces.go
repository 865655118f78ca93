package camera

import "context"

// WorkerPoolStats reports point-in-time counters for a BoundedWorkerPool.
type WorkerPoolStats struct {
	ActiveWorkers  int
	QueuedTasks    int
	CompletedTasks int64
	FailedTasks    int64
	TimeoutTasks   int64
	MaxWorkers     int
}

// BoundedWorkerPool bounds concurrent execution of short-lived tasks so a
// slow one (a JPEG encode, a blocking backend call) cannot starve the
// others sharing the pool. Used directly by internal/ipc to dispatch IPC
// request handlers; the name and shape originate in this package because
// hotplug/settings-apply callbacks were the first bounded-concurrency
// consumer.
type BoundedWorkerPool interface {
	Submit(ctx context.Context, task func(context.Context)) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
	GetStats() WorkerPoolStats
}
