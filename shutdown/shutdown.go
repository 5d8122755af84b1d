package shutdown

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/vinayprograms/recents/errors"
	"github.com/vinayprograms/recents/logging"
)

// Daemon teardown phases.
const (
	PhaseListeners = 10 // websocket and metrics endpoints
	PhaseRelay     = 20 // bridge serving and the service-died broadcast
	PhaseTransport = 30 // bus connection
	PhaseTelemetry = 40 // span export and event journal
)

// DefaultTimeout bounds a signal-triggered shutdown.
const DefaultTimeout = 30 * time.Second

// Handler is implemented by components that need teardown.
type Handler interface {
	OnShutdown(ctx context.Context) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context) error

func (f HandlerFunc) OnShutdown(ctx context.Context) error {
	return f(ctx)
}

// HandlerResult is the outcome of one handler.
type HandlerResult struct {
	Name     string
	Phase    int
	Duration time.Duration
	Err      error
}

// Result is the outcome of a shutdown.
type Result struct {
	TotalDuration time.Duration
	Results       []HandlerResult

	// Err joins handler failures, or reports the deadline passing before
	// every phase ran.
	Err error
}

// FailedHandlers returns the names of handlers that failed.
func (r *Result) FailedHandlers() []string {
	var failed []string
	for _, hr := range r.Results {
		if hr.Err != nil {
			failed = append(failed, hr.Name)
		}
	}
	return failed
}

type registration struct {
	name    string
	phase   int
	handler Handler
}

// Coordinator runs registered handlers once.
type Coordinator struct {
	timeout time.Duration
	log     *logging.Logger

	mu       sync.Mutex
	handlers []registration

	once    sync.Once
	done    chan struct{}
	result  *Result
	signals chan os.Signal
}

// NewCoordinator creates a coordinator. A zero timeout uses DefaultTimeout.
func NewCoordinator(timeout time.Duration, logger *logging.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Coordinator{
		timeout: timeout,
		log:     logger.WithComponent("shutdown"),
		done:    make(chan struct{}),
		signals: make(chan os.Signal, 1),
	}
}

// Register adds h under phase.
func (c *Coordinator) Register(name string, phase int, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, registration{name: name, phase: phase, handler: h})
}

// RegisterFunc adds fn under phase.
func (c *Coordinator) RegisterFunc(name string, phase int, fn func(ctx context.Context) error) {
	c.Register(name, phase, HandlerFunc(fn))
}

// Shutdown runs every phase in order. Later calls wait for the first one
// and return its result.
func (c *Coordinator) Shutdown(ctx context.Context) *Result {
	c.once.Do(func() {
		c.result = c.run(ctx)
		close(c.done)
	})
	<-c.done
	return c.result
}

// ShutdownWithTimeout runs Shutdown bounded by the coordinator timeout.
func (c *Coordinator) ShutdownWithTimeout() *Result {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.Shutdown(ctx)
}

// HandleSignals starts shutdown on SIGTERM or SIGINT.
func (c *Coordinator) HandleSignals() {
	signal.Notify(c.signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		select {
		case sig := <-c.signals:
			c.log.Info("signal received", map[string]interface{}{"signal": sig.String()})
			c.ShutdownWithTimeout()
		case <-c.done:
		}
		signal.Stop(c.signals)
	}()
}

// Trigger starts shutdown as if a signal had arrived. It needs
// HandleSignals to have been called.
func (c *Coordinator) Trigger() {
	select {
	case c.signals <- syscall.SIGTERM:
	default:
	}
}

// Done is closed once shutdown has finished.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Result returns the shutdown result, or nil before Done is closed.
func (c *Coordinator) Result() *Result {
	select {
	case <-c.done:
		return c.result
	default:
		return nil
	}
}

func (c *Coordinator) run(ctx context.Context) *Result {
	start := time.Now()

	c.mu.Lock()
	handlers := slices.Clone(c.handlers)
	c.mu.Unlock()
	slices.SortStableFunc(handlers, func(a, b registration) int { return a.phase - b.phase })

	result := &Result{}
	var errs []error
	for _, phase := range groupByPhase(handlers) {
		if ctx.Err() != nil {
			errs = append(errs, errors.New(errors.ErrCodeCanceled, "shutdown deadline exceeded",
				errors.WithMetadata("phase", phaseName(phase[0].phase)), errors.WithCause(ctx.Err())))
			break
		}
		for _, hr := range c.runPhase(ctx, phase) {
			result.Results = append(result.Results, hr)
			if hr.Err != nil {
				errs = append(errs, errors.Wrap(hr.Err, hr.Name))
			}
		}
	}

	result.Err = errors.Join(errs...)
	result.TotalDuration = time.Since(start)
	c.log.Info("shutdown complete", map[string]interface{}{
		"handlers": len(result.Results),
		"failed":   len(result.FailedHandlers()),
		"duration": result.TotalDuration.String(),
	})
	return result
}

func (c *Coordinator) runPhase(ctx context.Context, phase []registration) []HandlerResult {
	results := make([]HandlerResult, len(phase))
	var wg sync.WaitGroup
	for i, r := range phase {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := invoke(ctx, r.handler)
			results[i] = HandlerResult{Name: r.name, Phase: r.phase, Duration: time.Since(start), Err: err}
			if err != nil {
				c.log.Warn("handler failed", map[string]interface{}{"handler": r.name, "error": err})
			}
		}()
	}
	wg.Wait()
	return results
}

func invoke(ctx context.Context, h Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.RecoverPanic(r)
		}
	}()
	return h.OnShutdown(ctx)
}

// groupByPhase splits phase-sorted handlers into runs of equal phase.
func groupByPhase(handlers []registration) [][]registration {
	var groups [][]registration
	for i := 0; i < len(handlers); {
		j := i + 1
		for j < len(handlers) && handlers[j].phase == handlers[i].phase {
			j++
		}
		groups = append(groups, handlers[i:j])
		i = j
	}
	return groups
}

func phaseName(phase int) string {
	switch phase {
	case PhaseListeners:
		return "listeners"
	case PhaseRelay:
		return "relay"
	case PhaseTransport:
		return "transport"
	case PhaseTelemetry:
		return "telemetry"
	}
	return "custom"
}
