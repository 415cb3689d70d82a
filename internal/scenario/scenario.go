// Package scenario replays scripted timing operations against a tracker
// driven by a manual clock. The CLI uses it to turn a recorded or
// hand-written trace into a sample tree.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/yerf"
	"github.com/aretw0/yerf/internal/config"
	"github.com/aretw0/yerf/pkg/clock"
	"github.com/aretw0/yerf/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Ops understood in a step.
const (
	OpCreate    = "create"
	OpStart     = "start"
	OpStop      = "stop"
	OpWaterfall = "waterfall"
	OpBackfill  = "backfill"
)

// ErrUnknownSample is returned by a step addressing a sample that was never created.
var ErrUnknownSample = errors.New("unknown sample")

// Scenario is a list of steps ordered by time.
type Scenario struct {
	Name  string `mapstructure:"name"`
	Steps []Step `mapstructure:"steps"`
}

// Step is one operation at a point in time, in milliseconds.
//
// For backfill, Key names the stopped sample, Child the new sample, Parent
// the optional intermediate and From/To its bounds.
type Step struct {
	At       int64    `mapstructure:"at"`
	Op       string   `mapstructure:"op"`
	Key      string   `mapstructure:"key"`
	Children []string `mapstructure:"children"`
	Parent   string   `mapstructure:"parent"`
	Child    string   `mapstructure:"child"`
	From     int64    `mapstructure:"from"`
	To       int64    `mapstructure:"to"`
}

// Result is the outcome of a replay.
type Result struct {
	Tracker *yerf.Tracker
	// Errors holds the protocol errors the steps produced, in order.
	Errors []error
}

// LoadFile reads a YAML scenario.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML scenario and checks its steps.
func Parse(data []byte) (*Scenario, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	var sc Scenario
	if err := config.Decode(raw, &sc); err != nil {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks that steps are ordered in time and name known ops.
func (sc *Scenario) Validate() error {
	var last int64
	for i, st := range sc.Steps {
		if st.At < last {
			return fmt.Errorf("step %d: at %dms is before the previous step (%dms)", i, st.At, last)
		}
		last = st.At
		if st.Key == "" {
			return fmt.Errorf("step %d: missing key", i)
		}
		switch st.Op {
		case OpCreate, OpStart, OpStop:
		case OpWaterfall:
			if len(st.Children) == 0 {
				return fmt.Errorf("step %d: waterfall without children", i)
			}
		case OpBackfill:
			if st.Child == "" {
				return fmt.Errorf("step %d: backfill without child", i)
			}
		default:
			return fmt.Errorf("step %d: unknown op %q", i, st.Op)
		}
	}
	return nil
}

// Replay runs the steps on a fresh tracker. Extra options are applied after
// the manual clock and the error collector, so they may override both.
func Replay(sc *Scenario, opts ...yerf.Option) (res *Result, err error) {
	res = &Result{}
	clk := clock.NewManual(0)
	base := []yerf.Option{
		yerf.WithClock(clk),
		yerf.WithOrigin(0),
		yerf.WithErrorHandler(func(err error) {
			res.Errors = append(res.Errors, err)
		}),
	}
	res.Tracker = yerf.New(append(base, opts...)...)

	for i, st := range sc.Steps {
		clk.Set(time.Duration(st.At) * time.Millisecond)
		if err := apply(res.Tracker, st); err != nil {
			return res, fmt.Errorf("step %d (%s %s): %w", i, st.Op, st.Key, err)
		}
	}
	return res, nil
}

func apply(t *yerf.Tracker, st Step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var argErr *domain.ArgumentError
			if e, ok := r.(error); ok && errors.As(e, &argErr) {
				err = argErr
				return
			}
			panic(r)
		}
	}()

	switch st.Op {
	case OpCreate:
		t.Create(st.Key)
	case OpStart:
		s, ok := t.Find(st.Key)
		switch {
		case len(st.Children) > 0 && !ok:
			return fmt.Errorf("%w: %s", ErrUnknownSample, st.Key)
		case len(st.Children) > 0:
			s.Start(st.Children...)
		case ok:
			s.Start()
		default:
			t.Start(st.Key)
		}
	case OpStop, OpWaterfall, OpBackfill:
		s, ok := t.Find(st.Key)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSample, st.Key)
		}
		switch st.Op {
		case OpStop:
			s.Stop(st.Children...)
		case OpWaterfall:
			s.Waterfall(st.Children...)
		default:
			s.Backfill(st.Parent, st.Child,
				time.Duration(st.From)*time.Millisecond,
				time.Duration(st.To)*time.Millisecond)
		}
	}
	return nil
}
