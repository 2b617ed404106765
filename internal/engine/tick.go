// Package engine provides the tick-based simulation loop.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// TickSchedule defines when each system runs relative to the tick counter.
const (
	TicksPerSimHour   = 60     // 60 ticks = 1 sim-hour
	TicksPerSimDay    = 1440   // 24 hours × 60
	TicksPerSimWeek   = 10080  // 7 days × 1440
	TicksPerSimSeason = 129600 // 90 days
)

// ErrInvalidSpeed is returned by SetSpeed for negative or non-finite speeds.
var ErrInvalidSpeed = errors.New("speed must be a finite number >= 0")

// pausePoll is how often a paused engine checks whether it was resumed.
const pausePoll = 100 * time.Millisecond

// Engine drives the simulation forward.
type Engine struct {
	Interval time.Duration // Base tick interval (default 1 second)

	// Callbacks for each tick layer, populated during setup. They run on
	// the goroutine that calls Run or Steps.
	OnTick   func(tick uint64) // Every tick (sim-minute)
	OnHour   func(tick uint64) // Every 60 ticks
	OnDay    func(tick uint64) // Every 1440 ticks
	OnWeek   func(tick uint64) // Every 10080 ticks
	OnSeason func(tick uint64) // Every 90 sim-days

	tick    atomic.Uint64
	speed   atomic.Uint64 // float64 bits; 1.0 = real-time, 0 = paused
	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	e := &Engine{Interval: time.Second}
	e.speed.Store(math.Float64bits(1))
	return e
}

// Tick returns the last tick processed.
func (e *Engine) Tick() uint64 { return e.tick.Load() }

// SetTick moves the counter, used when restoring a saved world. The next
// step processes tick+1.
func (e *Engine) SetTick(tick uint64) { e.tick.Store(tick) }

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 { return math.Float64frombits(e.speed.Load()) }

// SetSpeed changes the speed multiplier. 0 pauses a running engine.
func (e *Engine) SetSpeed(v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidSpeed, v)
	}
	e.speed.Store(math.Float64bits(v))
	return nil
}

// Running reports whether Run is in progress.
func (e *Engine) Running() bool { return e.running.Load() }

// Run starts the simulation loop. Blocks until ctx is done or Stop is called.
func (e *Engine) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("simulation engine started", "tick", e.Tick(), "speed", e.Speed())

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "tick", e.Tick())
			return
		case <-timer.C:
		}

		speed := e.Speed()
		if speed <= 0 {
			// Paused; check again shortly.
			timer.Reset(pausePoll)
			continue
		}

		start := time.Now()
		e.step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		target := time.Duration(float64(e.Interval) / speed)
		timer.Reset(max(0, target-time.Since(start)))
	}
}

// Stop halts a running loop. It is a no-op when the engine is not running.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// Steps advances the simulation by n ticks without sleeping, for bounded
// runs and tests. It must not be called while Run is in progress.
func (e *Engine) Steps(n uint64) {
	for range n {
		e.step()
	}
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	tick := e.tick.Add(1)

	// Every tick: perception, decisions, actions.
	if e.OnTick != nil {
		e.OnTick(tick)
	}

	// Every sim-hour: needs drift, starvation.
	if tick%TicksPerSimHour == 0 && e.OnHour != nil {
		e.OnHour(tick)
	}

	// Every sim-day: regrowth, daily report.
	if tick%TicksPerSimDay == 0 && e.OnDay != nil {
		e.OnDay(tick)
	}

	if tick%TicksPerSimWeek == 0 && e.OnWeek != nil {
		e.OnWeek(tick)
	}

	if tick%TicksPerSimSeason == 0 && e.OnSeason != nil {
		e.OnSeason(tick)
	}
}

// SimTime returns a human-readable simulation time string from a tick number.
func SimTime(tick uint64) string {
	minutes := tick % 60
	totalHours := tick / 60
	hours := totalHours % 24
	totalDays := totalHours / 24
	days := totalDays%90 + 1
	seasons := totalDays / 90
	season := seasons % 4
	years := seasons/4 + 1

	seasonNames := [4]string{"Spring", "Summer", "Autumn", "Winter"}

	return fmt.Sprintf("%s Day %d, %d:%02d Year %d",
		seasonNames[season], days, hours, minutes, years)
}
