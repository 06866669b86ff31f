// Package worker implements the isolated execution context (C1) that runs
// one model's jobs. A Worker owns one sandbox.Module and communicates with
// its owning pool exclusively by message passing; it never shares mutable
// memory with the supervisor.
package worker

import (
	"context"
	"errors"
	"fmt"

	"modeld/internal/sandbox"
)

// Msg is a message sent from the supervisor to a Worker.
type Msg struct {
	// Name is the job name; the sentinel "shutdown" requests termination.
	Name string
	// Data is the job's opaque payload; the Worker lowers it to ABI pairs
	// with sandbox.ToPairs before invoking its Module.
	Data map[string]any
}

// ShutdownJob is the sentinel job name requesting worker termination.
const ShutdownJob = "shutdown"

// Reply is a message sent from a Worker back to the supervisor.
type Reply struct {
	// Ready is true exactly once: the first Reply, before any job is
	// accepted, per the Worker's startup handshake.
	Ready bool
	// Exit is true when this Reply is the ack for a shutdown Msg.
	Exit bool
	// Result carries a completed job's outcome; zero value when Ready or
	// Exit is true.
	Result Result
}

// Result is a job's success value or a wrapped failure.
type Result struct {
	Value    []sandbox.Pair
	HasError bool
	Message  string
}

// Worker is a single-threaded execution context holding one sandbox.Module.
type Worker struct {
	id     string
	module sandbox.Module
	in     chan Msg
	out    chan Reply
}

// New constructs a Worker around module and starts its run loop in a new
// goroutine. The caller must read the first Reply (Ready) before treating
// the Worker as usable, and must eventually send a ShutdownJob Msg.
func New(id string, module sandbox.Module) *Worker {
	w := &Worker{
		id:     id,
		module: module,
		in:     make(chan Msg),
		out:    make(chan Reply, 1),
	}
	go w.run()
	return w
}

// Send delivers msg to the worker's input channel.
func (w *Worker) Send(msg Msg) { w.in <- msg }

// Replies returns the channel the supervisor reads Replies from.
func (w *Worker) Replies() <-chan Reply { return w.out }

func (w *Worker) run() {
	w.out <- Reply{Ready: true}
	for msg := range w.in {
		if msg.Name == ShutdownJob {
			_ = w.module.Close()
			w.out <- Reply{Exit: true}
			return
		}
		res, fatal := w.execute(msg)
		if fatal {
			_ = w.module.Close()
			close(w.out)
			return
		}
		w.out <- Reply{Result: res}
	}
}

// execute runs one job, recovering any panic inside the sandbox call and
// wrapping it as a Result rather than letting it kill the Worker. A job
// failure never makes the Worker unusable; only a sandbox.FatalError does,
// signaled to the caller by the second return value so run can close the
// reply channel, which the pool observes as the Thread dying.
func (w *Worker) execute(msg Msg) (res Result, fatal bool) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{HasError: true, Message: fmt.Sprintf("panic: %v", r)}
			fatal = false
		}
	}()
	out, err := w.module.Invoke(context.Background(), msg.Name, sandbox.ToPairs(msg.Data))
	if err != nil {
		var fe *sandbox.FatalError
		if errors.As(err, &fe) {
			return Result{}, true
		}
		return Result{HasError: true, Message: err.Error()}, false
	}
	return Result{Value: out}, false
}
