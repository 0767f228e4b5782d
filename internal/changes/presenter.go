package changes

import (
	"context"
	"sync"
	"time"

	"github.com/vanpelt/codesandbox/internal/logger"
)

// DefaultPollInterval is how often the active target is refetched
const DefaultPollInterval = 5 * time.Second

// Phase is what the changes panel shows. Exactly one applies at a time.
type Phase int

const (
	PhaseNoTarget Phase = iota
	PhaseLoading
	PhaseError
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseError:
		return "error"
	case PhaseReady:
		return "ready"
	default:
		return "no target"
	}
}

// Snapshot is the presenter state at one moment
type Snapshot struct {
	Target    string
	Phase     Phase
	Err       error
	Changes   *ChangeSet
	UpdatedAt time.Time
}

// Request identifies one fetch. A response is only applied if the target
// and generation still match and no newer response has been applied.
type Request struct {
	Target     string
	Generation uint64
	Sequence   uint64
}

// Presenter polls a Source for the active target
type Presenter struct {
	source   Source
	interval time.Duration

	mu         sync.Mutex
	generation uint64
	sequence   uint64
	applied    uint64
	snap       Snapshot
	onChange   func(Snapshot)

	kick chan struct{}
}

// NewPresenter creates a Presenter. A non-positive interval means
// DefaultPollInterval.
func NewPresenter(source Source, interval time.Duration) *Presenter {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Presenter{
		source:   source,
		interval: interval,
		kick:     make(chan struct{}, 1),
	}
}

// Interval returns the poll interval
func (p *Presenter) Interval() time.Duration { return p.interval }

// OnChange registers fn to be called, outside the lock, after every state
// change.
func (p *Presenter) OnChange(fn func(Snapshot)) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

// SetTarget switches the active target. Responses for earlier targets that
// are still in flight will be discarded.
func (p *Presenter) SetTarget(target string) {
	p.mu.Lock()
	if target == p.snap.Target && p.generation > 0 {
		p.mu.Unlock()
		return
	}
	p.generation++
	p.applied = 0
	p.snap = Snapshot{Target: target, Phase: PhaseNoTarget}
	if target != "" {
		p.snap.Phase = PhaseLoading
	}
	snap, fn := p.snap, p.onChange
	p.mu.Unlock()

	select {
	case p.kick <- struct{}{}:
	default:
	}
	if fn != nil {
		fn(snap)
	}
}

// Snapshot returns the current state
func (p *Presenter) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Begin allocates a Request for the active target. ok is false when there
// is no target.
func (p *Presenter) Begin() (req Request, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snap.Target == "" {
		return Request{}, false
	}
	p.sequence++
	return Request{Target: p.snap.Target, Generation: p.generation, Sequence: p.sequence}, true
}

// Apply records the outcome of req. It returns false when the response is
// stale and was dropped.
func (p *Presenter) Apply(req Request, cs *ChangeSet, err error) bool {
	p.mu.Lock()
	if req.Generation != p.generation || req.Target != p.snap.Target || req.Sequence <= p.applied {
		p.mu.Unlock()
		logger.Debugf("🗑️ Dropping stale change set for %s (seq %d)", req.Target, req.Sequence)
		return false
	}
	p.applied = req.Sequence

	if err != nil {
		p.snap.Phase = PhaseError
		p.snap.Err = err
	} else {
		p.snap.Phase = PhaseReady
		p.snap.Err = nil
		p.snap.Changes = cs
		p.snap.UpdatedAt = time.Now()
	}
	snap, fn := p.snap, p.onChange
	p.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
	return true
}

// Fetch performs one poll for the active target
func (p *Presenter) Fetch(ctx context.Context) bool {
	req, ok := p.Begin()
	if !ok {
		return false
	}
	cs, err := p.source.Changed(ctx, req.Target)
	if err != nil {
		logger.Debugf("⚠️ Change set fetch for %s failed: %v", req.Target, err)
	}
	return p.Apply(req, cs, err)
}

// Run polls until ctx is done: immediately, on every interval and whenever
// the target changes.
func (p *Presenter) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Fetch(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-p.kick:
		}
		p.Fetch(ctx)
	}
}
