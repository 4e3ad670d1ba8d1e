// Simulation ties together the world and its minds and runs the per-tick
// phases.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/homestead/internal/agents"
	"github.com/talgya/homestead/internal/economy"
	"github.com/talgya/homestead/internal/world"
)

// maxEvents is how many recent events are kept in memory.
const maxEvents = 1000

// Event is a notable occurrence in the world.
type Event struct {
	Tick        uint64 `json:"tick"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"` // "activity", "harvest", "meal", "weather"
}

// SimStats tracks aggregate world statistics, refreshed every tick.
type SimStats struct {
	Population int            `json:"population"`
	Activities map[string]int `json:"activities"`
	AvgHunger  float64        `json:"avg_hunger"`
	AvgFatigue float64        `json:"avg_fatigue"`
	Food       uint64         `json:"food"`  // Held across all stores
	Water      uint64         `json:"water"` // Held across all stores
	Delivered  int            `json:"delivered"`
	Dropped    int            `json:"dropped"`
}

// DailyReport summarises one simulated day.
type DailyReport struct {
	Day        int     `json:"day" db:"day"`
	Date       string  `json:"date" db:"date"`
	Weather    string  `json:"weather" db:"weather"`
	Sun        uint32  `json:"sun" db:"sun"`
	Rain       uint32  `json:"rain" db:"rain"`
	Population int     `json:"population" db:"population"`
	AvgHunger  float64 `json:"avg_hunger" db:"avg_hunger"`
	AvgFatigue float64 `json:"avg_fatigue" db:"avg_fatigue"`
	Food       uint64  `json:"food" db:"food"`
	Water      uint64  `json:"water" db:"water"`
	Meals      int     `json:"meals" db:"meals"`
	Harvests   int     `json:"harvests" db:"harvests"`
	Messages   int     `json:"messages" db:"messages"`
}

// Options configures a Simulation.
type Options struct {
	Workers int   // Parallel tasks per phase; 0 means GOMAXPROCS
	Seed    int64 // Weather seed
}

// Simulation holds the complete world state and steps it one logic tick at a
// time. Step, Travel, and Publish must be called from a single goroutine;
// Snapshot and RecentEvents are safe from any goroutine.
type Simulation struct {
	World *world.World
	Minds []*agents.Mind // Parallel to World.Humans

	// Callbacks run on the simulation goroutine. Populated during setup.
	OnEvents func(events []Event) // After each tick that produced events
	OnDay    func(r DailyReport)  // When a day ends
	OnTick   func(snap *Snapshot) // After each logic tick

	workers int
	rng     *rand.Rand

	actOut   []economy.Outbox
	drainOut []economy.Outbox
	previous []agents.Activity

	stats SimStats
	today DailyReport

	snapshot atomic.Pointer[Snapshot]

	mu     sync.RWMutex
	events []Event
}

// NewSimulation creates a Simulation over w. minds[i] drives w.Humans[i].
func NewSimulation(w *world.World, minds []*agents.Mind, opts Options) (*Simulation, error) {
	if len(minds) != len(w.Humans) {
		return nil, fmt.Errorf("new simulation: %d minds for %d humans", len(minds), len(w.Humans))
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	s := &Simulation{
		World:    w,
		Minds:    minds,
		workers:  workers,
		rng:      rand.New(rand.NewSource(opts.Seed + 500)),
		previous: make([]agents.Activity, len(minds)),
	}
	for i, m := range minds {
		s.previous[i] = m.Activity
	}
	s.updateStats()
	s.Publish()
	return s, nil
}

// Workers returns the number of parallel tasks per phase.
func (s *Simulation) Workers() int {
	return s.workers
}

// Step runs one logic tick: the new-day update, then the think, act, and
// drain phases with a barrier after each, then the clock advances. Messages
// sent during act are applied in this tick's drain; replies produced by the
// drain are applied in the next one.
func (s *Simulation) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w := s.World

	if w.Time.IsNewDay() {
		if w.Time.Ticks > 0 {
			s.endDay()
		}
		s.startDay()
	}

	// Think: read-only over the world.
	if err := s.forEach(len(s.Minds), func(i int) {
		s.Minds[i].Think(w, world.HumanID(i))
	}); err != nil {
		return fmt.Errorf("think phase: %w", err)
	}

	// Act: each task owns one mind, its human, and its outbox.
	s.actOut = resize(s.actOut, len(s.Minds))
	if err := s.forEach(len(s.Minds), func(i int) {
		s.Minds[i].Act(w.Humans[i], &s.actOut[i])
	}); err != nil {
		return fmt.Errorf("act phase: %w", err)
	}
	delivered, dropped := w.Stores.Deliver(s.actOut)

	// Drain: each task owns one store and its outbox.
	s.drainOut = resize(s.drainOut, w.Stores.Len())
	if err := s.forEach(w.Stores.Len(), func(i int) {
		w.Stores.Drain(economy.StoreID(i), &s.drainOut[i])
	}); err != nil {
		return fmt.Errorf("drain phase: %w", err)
	}
	replies, lost := w.Stores.Deliver(s.drainOut)

	w.Time.Advance()

	s.stats.Delivered = delivered + replies
	s.stats.Dropped = dropped + lost
	s.today.Messages += delivered + replies
	s.recordTransitions()
	s.updateStats()
	snap := s.Publish()
	if s.OnTick != nil {
		s.OnTick(snap)
	}
	return nil
}

// Travel runs one interpolation step for every human. Calling it
// updatesPerTick times between logic ticks moves each human by its full
// intent.
func (s *Simulation) Travel(updatesPerTick int) error {
	w := s.World
	return s.forEach(len(s.Minds), func(i int) {
		s.Minds[i].Travel(w.Humans[i], updatesPerTick)
	})
}

// forEach calls fn for every index in [0, n), split into contiguous chunks
// across the worker pool, and returns once all calls have finished.
func (s *Simulation) forEach(n int, fn func(i int)) error {
	if n == 0 {
		return nil
	}
	chunk := (n + s.workers - 1) / s.workers

	var g errgroup.Group
	g.SetLimit(s.workers)
	for lo := 0; lo < n; lo += chunk {
		lo := lo
		hi := min(lo+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				fn(i)
			}
			return nil
		})
	}
	return g.Wait()
}

func resize(boxes []economy.Outbox, n int) []economy.Outbox {
	if cap(boxes) >= n {
		return boxes[:n]
	}
	return append(boxes[:cap(boxes)], make([]economy.Outbox, n-cap(boxes))...)
}

// recordTransitions logs every activity change since the previous tick.
func (s *Simulation) recordTransitions() {
	w := s.World
	var events []Event
	for i, m := range s.Minds {
		prev := s.previous[i]
		if m.Activity == prev {
			continue
		}
		s.previous[i] = m.Activity

		name := w.Humans[i].Name
		category := "activity"
		desc := fmt.Sprintf("%s: %s -> %s", name, prev, m.Activity)
		switch {
		case prev == agents.Working(agents.WorkWorking) && m.Activity == agents.Working(agents.WorkStoring):
			category = "harvest"
			desc = name + " brings in the harvest"
			s.today.Harvests++
		case prev == agents.Eating(agents.EatingEating) && m.Activity == agents.Idle():
			category = "meal"
			desc = name + " finishes a meal"
			s.today.Meals++
		}
		events = append(events, Event{
			Tick:        w.Time.Ticks,
			Date:        w.Time.String(),
			Description: desc,
			Category:    category,
		})
	}
	s.emit(events)
}

func (s *Simulation) emit(events []Event) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	s.events = append(s.events, events...)
	if len(s.events) > maxEvents {
		s.events = append(s.events[:0], s.events[len(s.events)-maxEvents:]...)
	}
	s.mu.Unlock()

	if s.OnEvents != nil {
		s.OnEvents(events)
	}
}

// RecentEvents returns up to limit of the most recent events, oldest first.
func (s *Simulation) RecentEvents(limit int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]Event, limit)
	copy(out, s.events[len(s.events)-limit:])
	return out
}

func (s *Simulation) updateStats() {
	w := s.World
	stats := SimStats{
		Population: len(w.Humans),
		Activities: make(map[string]int),
		Delivered:  s.stats.Delivered,
		Dropped:    s.stats.Dropped,
	}
	for i, h := range w.Humans {
		stats.AvgHunger += h.Hunger
		stats.AvgFatigue += h.Fatigue
		stats.Activities[s.Minds[i].Activity.String()]++
	}
	if n := len(w.Humans); n > 0 {
		stats.AvgHunger /= float64(n)
		stats.AvgFatigue /= float64(n)
	}
	for _, st := range w.Stores.All() {
		stats.Food += uint64(st.Count(economy.Food))
		stats.Water += uint64(st.Count(economy.Water))
	}
	s.stats = stats
}

// Stats returns the statistics as of the last tick.
func (s *Simulation) Stats() SimStats {
	return s.stats
}

// endDay closes the day that just finished: logs the daily report and hands
// it to OnDay.
func (s *Simulation) endDay() {
	w := s.World
	r := s.today
	r.Population = s.stats.Population
	r.AvgHunger = s.stats.AvgHunger
	r.AvgFatigue = s.stats.AvgFatigue
	r.Food = s.stats.Food
	r.Water = s.stats.Water

	slog.Info("daily report",
		"day", r.Day,
		"date", r.Date,
		"weather", r.Weather,
		"population", r.Population,
		"avg_hunger", fmt.Sprintf("%.1f", r.AvgHunger),
		"avg_fatigue", fmt.Sprintf("%.1f", r.AvgFatigue),
		"food", humanize.Comma(int64(r.Food)),
		"water", humanize.Comma(int64(r.Water)),
		"meals", r.Meals,
		"harvests", r.Harvests,
		"messages", humanize.Comma(int64(r.Messages)),
		"now", w.Time.String(),
	)

	if s.OnDay != nil {
		s.OnDay(r)
	}
}
