package updater

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vango-dev/vpatch/pkg/vdom"
	"go.opentelemetry.io/otel/trace"
)

// ErrDiverged is returned by Update after a failed cycle, once the live
// tree can no longer be assumed to match the current snapshot.
var ErrDiverged = errors.New("updater: live tree diverged from snapshot; Reset required")

// Cycle describes one successfully applied render cycle.
type Cycle struct {
	Seq     uint64       // 1 for the first Update after New or Reset
	Patches []vdom.Patch // The applied script, possibly empty
}

// Option configures an Updater.
type Option func(*options)

type options struct {
	name      string
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	observers []func(Cycle)
}

// WithName labels the Updater's logs and spans.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records cycles in m. Without it no metrics are recorded.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracer sets the tracer. Default: the global provider's tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// WithObserver registers fn to be called after every successful cycle,
// while the cycle still holds the Updater's lock.
func WithObserver(fn func(Cycle)) Option {
	return func(o *options) {
		o.observers = append(o.observers, fn)
	}
}

// Updater owns a live tree of N handles and the snapshot it represents.
// It is safe for concurrent use; cycles are serialized.
type Updater[N any] struct {
	mu       sync.Mutex
	target   vdom.Target[N]
	current  *vdom.VNode
	root     N
	seq      uint64
	diverged bool
	opts     options
}

// New materializes initial through target and returns an Updater that owns
// the resulting live root.
func New[N any](target vdom.Target[N], initial *vdom.VNode, opts ...Option) (*Updater[N], error) {
	o := options{name: "default"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With("updater", o.name)
	if o.tracer == nil {
		o.tracer = defaultTracer()
	}

	u := &Updater[N]{target: target, opts: o}
	if err := u.mount(initial); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *Updater[N]) mount(snapshot *vdom.VNode) error {
	if err := vdom.Validate(snapshot); err != nil {
		return errors.Wrap(err, "updater: invalid snapshot")
	}
	root, err := u.target.Create(snapshot)
	if err != nil {
		return errors.Wrap(err, "updater: create root")
	}
	u.root = root
	u.current = snapshot
	u.seq = 0
	u.diverged = false
	u.opts.metrics.recordTree(snapshot)
	u.opts.logger.Debug("mounted", "nodes", vdom.Count(snapshot))
	return nil
}

// Update runs one render cycle towards next. The context is consulted
// only before the cycle starts; a started cycle always runs to completion.
//
// On success next becomes the current snapshot. On failure the current
// snapshot is kept, the live tree is left in an unspecified state, and
// every later Update returns ErrDiverged until Reset.
func (u *Updater[N]) Update(ctx context.Context, next *vdom.VNode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := vdom.Validate(next); err != nil {
		u.opts.metrics.recordCycle(resultRejected, 0)
		return errors.Wrap(err, "updater: invalid snapshot")
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.diverged {
		u.opts.metrics.recordCycle(resultRejected, 0)
		return ErrDiverged
	}

	seq := u.seq + 1
	_, span := u.opts.startCycle(ctx, seq)
	start := time.Now()

	patches := vdom.Diff(u.current, next)
	root, err := vdom.Apply(u.target, u.root, patches)
	elapsed := time.Since(start)
	endCycle(span, len(patches), err)

	if err != nil {
		u.diverged = true
		u.root = root
		u.opts.metrics.recordCycle(resultFailed, elapsed)
		u.opts.logger.Error("render cycle failed",
			"seq", seq,
			"patches", len(patches),
			"unresolved", errors.Is(err, vdom.ErrUnresolvedIndex),
			"error", err)
		return errors.Wrapf(err, "updater: cycle %d", seq)
	}

	u.root = root
	u.current = next
	u.seq = seq

	result := resultOK
	if len(patches) == 0 {
		result = resultNoop
	}
	u.opts.metrics.recordCycle(result, elapsed)
	u.opts.metrics.recordPatches(patches)
	u.opts.metrics.recordTree(next)
	u.opts.logger.Debug("render cycle applied",
		"seq", seq,
		"patches", len(patches),
		"duration", elapsed)

	cycle := Cycle{Seq: seq, Patches: patches}
	for _, fn := range u.opts.observers {
		fn(cycle)
	}
	return nil
}

// Reset discards the live tree and materializes snapshot in its place,
// clearing any divergence. Targets implementing vdom.Releaser are told
// about the dropped root.
func (u *Updater[N]) Reset(snapshot *vdom.VNode) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	old := u.root
	if err := u.mount(snapshot); err != nil {
		return err
	}
	if r, ok := u.target.(vdom.Releaser[N]); ok {
		r.Release(old)
	}
	u.opts.logger.Info("live tree reset")
	return nil
}

// Root returns the current live root.
func (u *Updater[N]) Root() N {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.root
}

// Current returns the snapshot the live tree represents.
func (u *Updater[N]) Current() *vdom.VNode {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.current
}

// Seq returns the number of cycles applied since New or the last Reset.
func (u *Updater[N]) Seq() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.seq
}

// Diverged reports whether a failed cycle requires a Reset.
func (u *Updater[N]) Diverged() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.diverged
}
