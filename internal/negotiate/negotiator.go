package negotiate

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// AttemptFailure records why one strategy didn't produce a result,
// for AllStrategiesFailed's per-strategy detail (§4.4).
type AttemptFailure struct {
	Strategy string
	Reason   string
}

// AllStrategiesFailedError is returned when every strategy either was
// not applicable or failed outright.
type AllStrategiesFailedError struct {
	Failures []AttemptFailure
}

func (e *AllStrategiesFailedError) Error() string {
	return "all negotiation strategies failed"
}

// Negotiator orchestrates Strategy implementations in descending
// priority order (C5). It never mutates port state — callers apply
// the returned Params via the port service's open().
type Negotiator struct {
	strategies []Strategy
	open       Opener
}

// New sorts strategies by descending priority once, at construction,
// per the design notes (§9).
func New(open Opener, strategies ...Strategy) *Negotiator {
	sorted := append([]Strategy(nil), strategies...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() > sorted[j].Priority()
	})
	return &Negotiator{strategies: sorted, open: open}
}

// Default constructs a Negotiator with the three stock strategies in
// their documented priority order.
func Default(open Opener) *Negotiator {
	return New(open, ManufacturerStrategy{}, EchoProbeStrategy{}, StandardSweepStrategy{})
}

// Detect tries each strategy by descending priority and returns the
// first confident result.
func (n *Negotiator) Detect(portName string, hints Hints) (Params, error) {
	var failures []AttemptFailure
	for _, st := range n.strategies {
		params, err := st.Detect(n.open, portName, hints)
		if err == nil {
			return params, nil
		}
		if err == ErrNotApplicable {
			continue
		}
		failures = append(failures, AttemptFailure{Strategy: st.Name(), Reason: err.Error()})
	}
	return Params{}, &AllStrategiesFailedError{Failures: failures}
}

// DetectPreferred jumps directly to the named strategy, skipping the
// priority order.
func (n *Negotiator) DetectPreferred(name, portName string, hints Hints) (Params, error) {
	for _, st := range n.strategies {
		if st.Name() != name {
			continue
		}
		params, err := st.Detect(n.open, portName, hints)
		if err != nil {
			if err == ErrNotApplicable {
				return Params{}, &AllStrategiesFailedError{
					Failures: []AttemptFailure{{Strategy: name, Reason: "not applicable"}},
				}
			}
			return Params{}, &AllStrategiesFailedError{
				Failures: []AttemptFailure{{Strategy: name, Reason: err.Error()}},
			}
		}
		return params, nil
	}
	return Params{}, &AllStrategiesFailedError{
		Failures: []AttemptFailure{{Strategy: name, Reason: "unknown strategy"}},
	}
}

// DetectMany runs Detect against each port name independently and
// concurrently (§4.4): every strategy opens its own short-lived
// handle, so there is no shared state between per-port detections,
// and a failure on one port never cancels the others.
func (n *Negotiator) DetectMany(ctx context.Context, portNames []string, hints Hints) map[string]Result {
	results := make(map[string]Result, len(portNames))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range portNames {
		name := name
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			params, err := n.Detect(name, hints)
			mu.Lock()
			results[name] = Result{Params: params, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Result pairs a DetectMany outcome with its error so callers can
// distinguish a successful detection from a per-port failure without
// the map value's zero Params being ambiguous.
type Result struct {
	Params Params
	Err    error
}
