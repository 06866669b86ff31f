package pool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"modeld/internal/sandbox"
)

// Defaults applied when the corresponding Config field is unset.
const (
	DefaultMin            = 1
	DefaultMax            = 2
	DefaultQueueTolerance = 25
	defaultDrainTimeout   = 4 * time.Second
	defaultStartTimeout   = 10 * time.Second
	defaultShutdownGrace  = 5 * time.Second
	defaultStopDelay      = 10 * time.Millisecond
	defaultSweepInterval  = 1500 * time.Millisecond
)

// Config carries everything needed to construct one Pool.
type Config struct {
	Name           string
	File           string
	WorkerData     map[string]any
	Min            int
	Max            int
	QueueTolerance int
	// RejectWhenClosed selects the submit-time admission policy: when
	// true, Submit fails fast with pool-closed while the pool is closed;
	// when false (default), Submit queues the job for delivery once the
	// pool reopens (queue-while-closed).
	RejectWhenClosed bool

	Loader sandbox.Loader

	DrainTimeout  time.Duration
	StartTimeout  time.Duration
	ShutdownGrace time.Duration
	StopDelay     time.Duration
	SweepInterval time.Duration

	Publisher EventPublisher
	Logger    *zerolog.Logger
}

// Pool is the scheduling unit for one model: a bounded elastic set of
// Workers, its job queue, and its lifecycle state machine. All fields
// below are mutated only while holding mu, from the supervisor goroutine
// that calls Submit/Close/Open/Drain/StopThreads/StartThreads; Worker
// reader goroutines touch only their own thread's bookkeeping through the
// same lock.
type Pool struct {
	mu sync.Mutex

	name       string
	file       string
	workerData map[string]any
	loader     sandbox.Loader

	min            int
	max            int
	queueTolerance int
	rejectClosed   bool

	state State

	totalThreads int
	freeThreads  []*thread          // stack: push/pop at the tail
	threads      map[string]*thread // every live thread, keyed by id
	pending      map[string]*job    // thread id -> job currently in flight
	waitingJobs  []*job             // FIFO queue of jobs awaiting a Thread

	reloads       uint64
	jobsRequested uint64
	jobsQueued    uint64
	destroyed     bool

	idSeq uint64

	drainTimeout  time.Duration
	startTimeout  time.Duration
	shutdownGrace time.Duration
	stopDelay     time.Duration
	sweepInterval time.Duration

	sweepStop chan struct{}
	sweepDone chan struct{}

	publisher EventPublisher
	log       *zerolog.Logger
}

// New constructs a Pool in the open state with zero live Threads. Callers
// that want eager warm Threads should follow with StartThreads.
func New(cfg Config) *Pool {
	p := &Pool{
		name:           cfg.Name,
		file:           cfg.File,
		workerData:     cfg.WorkerData,
		loader:         cfg.Loader,
		min:            orDefault(cfg.Min, DefaultMin),
		max:            orDefault(cfg.Max, DefaultMax),
		queueTolerance: cfg.QueueTolerance,
		rejectClosed:   cfg.RejectWhenClosed,
		state:          StateOpen,
		threads:        make(map[string]*thread),
		pending:        make(map[string]*job),
		drainTimeout:   orDefaultDur(cfg.DrainTimeout, defaultDrainTimeout),
		startTimeout:   orDefaultDur(cfg.StartTimeout, defaultStartTimeout),
		shutdownGrace:  orDefaultDur(cfg.ShutdownGrace, defaultShutdownGrace),
		stopDelay:      orDefaultDur(cfg.StopDelay, defaultStopDelay),
		sweepInterval:  orDefaultDur(cfg.SweepInterval, defaultSweepInterval),
		publisher:      cfg.Publisher,
		log:            cfg.Logger,
	}
	if cfg.QueueTolerance == 0 {
		p.queueTolerance = DefaultQueueTolerance
	}
	if p.loader == nil {
		p.loader = sandbox.NewStubLoader()
	}
	if p.publisher == nil {
		p.publisher = noopPublisher{}
	}
	p.startSweep()
	return p
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultDur(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

// Name returns the pool's model name.
func (p *Pool) Name() string { return p.name }

func (p *Pool) nextThreadID() string {
	n := atomic.AddUint64(&p.idSeq, 1)
	return fmt.Sprintf("%s-t%d", p.name, n)
}

func (p *Pool) publish(name string, fields map[string]any) {
	p.publisher.Publish(Event{Name: name, Pool: p.name, Fields: fields})
}

func (p *Pool) logf(event string) *zerolog.Event {
	if p.log == nil {
		return nil
	}
	return p.log.Info().Str("pool", p.name).Str("event", event)
}
