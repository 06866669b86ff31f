// Package pool implements the per-model worker pool (C2) and its
// process-wide directory (C3): a bounded elastic set of workers for one
// model, an in-memory job queue with admission control, and the
// close/drain/stop/start/reload lifecycle. It is structured into small
// files by concern:
//
//   - pool.go: core Pool type, constructor, Config.
//   - types.go: Thread/ThreadState, job, State, Result.
//   - errors.go: error types and IsX predicates.
//   - events.go: EventPublisher and the in-memory test publisher.
//   - admission.go: Submit and the dispatch algorithm.
//   - lifecycle.go: Close/Open/Drain/StopThreads/StartThreads/Reload.
//   - sweep.go: the background dequeue sweep.
//   - status.go: Status() snapshot reporting.
//   - lazy.go: the lazy pool facade.
//   - registry.go: Registry, the process-wide Pool directory.
package pool
