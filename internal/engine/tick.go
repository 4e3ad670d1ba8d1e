// Package engine provides the tick-based simulation loop: a fork-join
// scheduler over the world's minds and stores, and a paced driver that
// interleaves logic ticks with travel frames.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MaxSpeed caps the speed multiplier.
const MaxSpeed = 64.0

// Engine drives the simulation forward in real time.
type Engine struct {
	Sim            *Simulation
	Interval       time.Duration // Real time per logic tick at speed 1
	UpdatesPerTick int           // Travel frames per logic tick

	mu     sync.Mutex
	speed  float64 // Multiplier: 1.0 = real-time, 0 = paused
	resume float64 // Speed restored by Resume
}

// NewEngine creates an engine for sim with default settings.
func NewEngine(sim *Simulation) *Engine {
	return &Engine{
		Sim:            sim,
		Interval:       100 * time.Millisecond,
		UpdatesPerTick: 4,
		speed:          1.0,
	}
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed sets the speed multiplier, clamped to [0, MaxSpeed]. Zero pauses.
func (e *Engine) SetSpeed(speed float64) float64 {
	speed = max(0, min(speed, MaxSpeed))
	e.mu.Lock()
	e.speed = speed
	e.mu.Unlock()
	slog.Info("simulation speed changed", "speed", speed)
	return speed
}

// Pause stops the clock, remembering the current speed for Resume.
func (e *Engine) Pause() {
	e.mu.Lock()
	if e.speed > 0 {
		e.resume = e.speed
	}
	e.speed = 0
	e.mu.Unlock()
	slog.Info("simulation paused")
}

// Resume restores the speed in effect before Pause, or 1 if there was none.
func (e *Engine) Resume() float64 {
	e.mu.Lock()
	if e.speed <= 0 {
		e.speed = e.resume
		if e.speed <= 0 {
			e.speed = 1
		}
	}
	speed := e.speed
	e.mu.Unlock()
	slog.Info("simulation resumed", "speed", speed)
	return speed
}

// Paused reports whether the speed is zero.
func (e *Engine) Paused() bool {
	return e.Speed() <= 0
}

// Run steps the simulation until ctx is cancelled. Each logic tick is
// followed by UpdatesPerTick travel frames spread over the tick interval.
func (e *Engine) Run(ctx context.Context) error {
	updates := max(1, e.UpdatesPerTick)
	slog.Info("simulation engine started",
		"tick", e.Sim.World.Time.Ticks,
		"speed", e.Speed(),
		"workers", e.Sim.Workers(),
	)
	defer func() {
		slog.Info("simulation engine stopped", "tick", e.Sim.World.Time.Ticks)
	}()

	for {
		speed := e.Speed()
		if speed <= 0 {
			// Paused; check again shortly.
			if !sleep(ctx, 100*time.Millisecond) {
				return nil
			}
			continue
		}

		start := time.Now()
		if err := e.Sim.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		frame := time.Duration(float64(e.Interval) / speed / float64(updates))
		for i := 0; i < updates; i++ {
			if err := e.Sim.Travel(updates); err != nil {
				return err
			}
			e.Sim.PublishPositions()
			if !sleep(ctx, time.Until(start.Add(frame*time.Duration(i+1)))) {
				return nil
			}
		}
	}
}

// RunTicks advances n logic ticks, with their travel frames, as fast as
// possible. Used for headless runs and tests.
func (e *Engine) RunTicks(ctx context.Context, n int) error {
	updates := max(1, e.UpdatesPerTick)
	for t := 0; t < n; t++ {
		if err := e.Sim.Step(ctx); err != nil {
			return err
		}
		for i := 0; i < updates; i++ {
			if err := e.Sim.Travel(updates); err != nil {
				return err
			}
		}
	}
	e.Sim.Publish()
	return nil
}

// sleep waits for d or until ctx is done. It reports false if ctx ended.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
