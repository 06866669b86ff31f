package pool

// queueFullError is the queue-full-while-closed admission error. Pool.Submit
// does not return it (a closed pool in reject mode returns poolClosedError);
// ErrQueueFull builds one.
type queueFullError struct{ pool string }

func (e queueFullError) Error() string { return "queue-full-while-closed: " + e.pool }

// IsQueueFull reports whether err is a transient admission rejection.
func IsQueueFull(err error) bool { _, ok := err.(queueFullError); return ok }

// ErrQueueFull constructs a queueFullError, for callers (httpapi's error
// mapping tests) that need one without triggering real admission pressure.
func ErrQueueFull(pool string) error { return queueFullError{pool: pool} }

// startTimeoutError signals a new Thread did not complete its ready
// handshake within the startup deadline.
type startTimeoutError struct{ pool string }

func (e startTimeoutError) Error() string { return "start-timeout: " + e.pool }

// IsStartTimeout reports whether err is a Thread startup timeout.
func IsStartTimeout(err error) bool { _, ok := err.(startTimeoutError); return ok }

// poolClosedError signals outright rejection when the registry's
// admission policy is reject-mode rather than queue-while-closed.
type poolClosedError struct{ pool string }

func (e poolClosedError) Error() string { return "pool-closed: " + e.pool }

// IsPoolClosed reports whether err indicates a reject-mode closed pool.
func IsPoolClosed(err error) bool { _, ok := err.(poolClosedError); return ok }

// poolDestroyedError is returned to a submitter racing a Destroy call,
// rather than silently discarding the submission.
type poolDestroyedError struct{ pool string }

func (e poolDestroyedError) Error() string { return "pool-destroyed: " + e.pool }

// IsPoolDestroyed reports whether err indicates the pool was destroyed.
func IsPoolDestroyed(err error) bool { _, ok := err.(poolDestroyedError); return ok }

// ErrPoolDestroyed constructs a poolDestroyedError, for callers (httpapi's
// error mapping tests) that need one without a real Destroy race.
func ErrPoolDestroyed(pool string) error { return poolDestroyedError{pool: pool} }

// workerExitedError's message is the Result.Message (with HasError set)
// delivered to a job in flight on a Thread that died before replying;
// Submit's error return stays nil in that case.
type workerExitedError struct{ pool string }

func (e workerExitedError) Error() string { return "worker-exited: " + e.pool }

// IsWorkerExited reports whether err indicates the owning Thread died.
func IsWorkerExited(err error) bool { _, ok := err.(workerExitedError); return ok }

// drainTimeoutError signals Drain's hard bound elapsed before
// noJobsRunning was reached. The pool still transitions to drained;
// survivors are logged as leaks.
type drainTimeoutError struct{ pool string }

func (e drainTimeoutError) Error() string { return "drain-timeout: " + e.pool }

// IsDrainTimeout reports whether err is a drain timeout.
func IsDrainTimeout(err error) bool { _, ok := err.(drainTimeoutError); return ok }

// drainingNotClosedError is returned when Drain is called on a pool that
// is still open.
type drainingNotClosedError struct{ pool string }

func (e drainingNotClosedError) Error() string { return "draining-not-closed: " + e.pool }

// IsDrainingNotClosed reports whether err indicates Drain was called
// before Close.
func IsDrainingNotClosed(err error) bool { _, ok := err.(drainingNotClosedError); return ok }

// stopBeforeDrainError is returned when StopThreads is called on a pool
// that has not successfully drained.
type stopBeforeDrainError struct{ pool string }

func (e stopBeforeDrainError) Error() string { return "stop-before-drain: " + e.pool }

// IsStopBeforeDrain reports whether err indicates StopThreads preceded a
// successful Drain.
func IsStopBeforeDrain(err error) bool { _, ok := err.(stopBeforeDrainError); return ok }

// startWithExistingThreadsError is returned when StartThreads is called
// while Threads from a previous generation are still alive.
type startWithExistingThreadsError struct{ pool string }

func (e startWithExistingThreadsError) Error() string {
	return "start-with-existing-threads: " + e.pool
}

// IsStartWithExistingThreads reports whether err indicates StartThreads
// was rejected because old Threads remain.
func IsStartWithExistingThreads(err error) bool {
	_, ok := err.(startWithExistingThreadsError)
	return ok
}

// openNoThreadsError is returned when Open is called but no Threads exist.
type openNoThreadsError struct{ pool string }

func (e openNoThreadsError) Error() string { return "open-no-threads: " + e.pool }

// IsOpenNoThreads reports whether err indicates Open was rejected for
// lack of live Threads.
func IsOpenNoThreads(err error) bool { _, ok := err.(openNoThreadsError); return ok }

// modelNotFoundError signals a model id unknown to the registry.
type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// ErrModelNotFound constructs a modelNotFoundError.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether err indicates a missing model id.
func IsModelNotFound(err error) bool { _, ok := err.(modelNotFoundError); return ok }
