package simulation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/yegors/ground-atc/internal/aircraft"
	"github.com/yegors/ground-atc/internal/airport"
	"github.com/yegors/ground-atc/internal/clock"
	"github.com/yegors/ground-atc/internal/command"
	"github.com/yegors/ground-atc/internal/resource"
	"github.com/yegors/ground-atc/pkg/logger"
	"github.com/yegors/ground-atc/pkg/types"
)

// Publisher receives every view the service publishes, outside the world lock.
// Views may arrive out of order; Sequence orders them.
type Publisher interface {
	Publish(v *View)
}

// Options configures a Service
type Options struct {
	Rates         clock.Rates
	Clock         *clock.Clock
	RadioLogSize  int
	Spawn         SpawnOptions
	JournalBuffer int
}

// Result describes an accepted command
type Result struct {
	ID             string             `json:"id"`
	Line           string             `json:"line"`
	Aircraft       types.AircraftID   `json:"aircraft"`
	Command        string             `json:"command"`
	From           aircraft.State     `json:"from"`
	To             aircraft.State     `json:"to"`
	Clearance      string             `json:"clearance"`
	Releases       []aircraft.Release `json:"releases,omitempty"`
	Sequence       uint64             `json:"sequence"`
	SimTimeSeconds float64            `json:"sim_time_seconds"`
}

// NewAircraft is a request to add an aircraft at a gate or on approach
type NewAircraft struct {
	Callsign string `json:"callsign"`
	Gate     string `json:"gate,omitempty"`
	Runway   string `json:"runway,omitempty"`
}

// Service owns the world state. Commands and clock ticks are serialized by one
// mutex; readers get immutable views through an atomic pointer and never block writers.
type Service struct {
	mu        sync.Mutex
	airport   *airport.Model
	resources *resource.Manager
	aircraft  map[types.AircraftID]*aircraft.Aircraft
	order     []types.AircraftID // aircraft ids, sorted
	rates     clock.Rates
	simTime   time.Duration
	sequence  uint64
	stats     Stats
	radio     *radioLog
	spawner   *spawner
	static    *AirportView

	view atomic.Pointer[View]

	pubMu      sync.RWMutex
	publishers []Publisher

	journal   Journal
	journalCh chan journalEntry

	clock  *clock.Clock
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *logger.Logger
}

// NewService creates a service for an airport with an empty fleet. journal may be nil.
func NewService(ap *airport.Model, opts Options, journal Journal, log *logger.Logger) *Service {
	if opts.Clock == nil {
		opts.Clock = clock.New(0, 1)
	}
	static := newAirportView(ap)
	s := &Service{
		airport:   ap,
		resources: resource.NewManager(ap.RunwayIDs(), ap.GateIDs()),
		aircraft:  make(map[types.AircraftID]*aircraft.Aircraft),
		rates:     opts.Rates,
		radio:     newRadioLog(opts.RadioLogSize),
		spawner:   newSpawner(opts.Spawn),
		static:    &static,
		journal:   journal,
		clock:     opts.Clock,
		logger:    log.Named("simulation"),
	}
	if journal != nil {
		size := opts.JournalBuffer
		if size <= 0 {
			size = 256
		}
		s.journalCh = make(chan journalEntry, size)
	}
	s.view.Store(s.buildView())
	return s
}

// AddPublisher registers a view subscriber
func (s *Service) AddPublisher(p Publisher) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.publishers = append(s.publishers, p)
}

// Airport returns the immutable airport model
func (s *Service) Airport() *airport.Model {
	return s.airport
}

// Snapshot returns the latest published view. It never blocks.
func (s *Service) Snapshot() *View {
	return s.view.Load()
}

// Start runs the clock and the journal writer until ctx is done or Stop is called
func (s *Service) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if s.journalCh != nil {
		s.wg.Add(1)
		go s.journalLoop(runCtx)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clock.Run(runCtx, func(elapsed time.Duration) {
			s.Advance(elapsed)
		})
	}()

	s.logger.Info("Simulation started",
		logger.Duration("tick", s.clock.Period),
		logger.Float64("time_scale", s.clock.Scale),
		logger.Int("aircraft", len(s.Snapshot().Aircraft)))
	return nil
}

// Stop halts the clock and flushes pending journal entries
func (s *Service) Stop() {
	s.logger.Info("Stopping simulation")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("Simulation stopped")
}

// AddAircraft creates a parked aircraft (gate) or an arrival (runway)
func (s *Service) AddAircraft(req NewAircraft) (AircraftView, error) {
	id := types.ParseAircraftID(req.Callsign)
	if id == "" || (req.Gate == "") == (req.Runway == "") {
		return AircraftView{}, ErrInvalidAircraft
	}

	s.mu.Lock()
	if _, exists := s.aircraft[id]; exists {
		s.mu.Unlock()
		return AircraftView{}, fmt.Errorf("%w: %s", ErrDuplicateAircraft, id)
	}

	var (
		a   *aircraft.Aircraft
		err error
	)
	if req.Gate != "" {
		a, err = aircraft.NewAtGate(id, types.GateID(strings.ToUpper(req.Gate)), s.env())
	} else {
		r := types.RunwayID(strings.ToUpper(req.Runway))
		if a, err = aircraft.NewApproaching(id, r, s.env()); err == nil {
			s.radio.add(RadioMessage{SimTimeSeconds: s.simTime.Seconds(), From: string(id), Text: onFinal(id, r)})
		}
	}
	if err != nil {
		s.mu.Unlock()
		return AircraftView{}, err
	}
	s.insert(a)
	view := s.publishLocked()
	s.mu.Unlock()

	s.notify(view)
	s.logger.Info("Aircraft added", logger.String("aircraft", string(id)), logger.String("state", a.State.String()))
	found, _ := view.Find(id)
	return found, nil
}

// Execute interprets one operator line and applies it in a single serialized step
func (s *Service) Execute(line string) (Result, error) {
	var fx effects
	s.mu.Lock()
	in, err := command.Interpret(line, registry{s})
	var res Result
	if err != nil {
		s.stats.Rejections++
		fx.journal = append(fx.journal, journalEntry{command: s.commandRecord(uuid.NewString(), line, command.Instruction{}, err)})
	} else {
		res, err = s.applyLocked(line, in, &fx)
	}
	s.mu.Unlock()

	s.finish(fx)
	return res, err
}

// Apply applies an already interpreted instruction
func (s *Service) Apply(in command.Instruction) (Result, error) {
	var fx effects
	s.mu.Lock()
	res, err := s.applyLocked(in.String(), in, &fx)
	s.mu.Unlock()

	s.finish(fx)
	return res, err
}

// Advance moves simulated time forward and returns the implicit transitions that fired
func (s *Service) Advance(elapsed time.Duration) []aircraft.Event {
	if elapsed <= 0 {
		return nil
	}

	s.mu.Lock()
	s.simTime += elapsed
	events := clock.Tick(s.fleet(), s.env(), s.rates, elapsed)
	for _, ev := range events {
		s.radio.add(RadioMessage{SimTimeSeconds: s.simTime.Seconds(), From: string(ev.Aircraft), Text: pilotReport(ev)})
		if ev.Kind == aircraft.EventRunwayVacated && ev.Eligible != "" {
			s.announceEligible(ev.Runway, ev.Eligible)
		}
	}
	if s.spawner.due(elapsed) {
		s.spawnLocked()
	}
	view := s.publishLocked()
	s.mu.Unlock()

	s.notify(view)
	for _, ev := range events {
		s.logger.Debug("Implicit transition",
			logger.String("aircraft", string(ev.Aircraft)),
			logger.String("event", string(ev.Kind)))
	}
	return events
}

// effects are produced under the lock and carried out after it is released
type effects struct {
	view    *View
	journal []journalEntry
}

func (s *Service) finish(fx effects) {
	if fx.view != nil {
		s.notify(fx.view)
	}
	s.enqueue(fx.journal)
}

func (s *Service) applyLocked(line string, in command.Instruction, fx *effects) (Result, error) {
	id := uuid.NewString()

	a, ok := s.aircraft[in.Aircraft]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownAircraft, in.Aircraft)
		s.stats.Rejections++
		fx.journal = append(fx.journal, journalEntry{command: s.commandRecord(id, line, in, err)})
		return Result{}, err
	}

	out, err := a.Apply(in, s.env())
	if err != nil {
		if Classify(err) == CategoryDenied {
			s.stats.Denials++
		} else {
			s.stats.Rejections++
		}
		fx.journal = append(fx.journal, journalEntry{command: s.commandRecord(id, line, in, err)})
		s.logger.Debug("Command rejected", logger.String("line", line), logger.Error(err))
		return Result{}, err
	}

	s.stats.Commands++
	switch in.Kind {
	case command.Takeoff:
		s.stats.Departures++
	case command.Land:
		s.stats.Arrivals++
	}
	now := s.simTime.Seconds()
	s.radio.add(RadioMessage{SimTimeSeconds: now, From: Tower, Text: out.Clearance})
	for _, rel := range out.Releases {
		if rel.Eligible != "" {
			s.announceEligible(rel.Runway, rel.Eligible)
		}
	}
	fx.view = s.publishLocked()

	res := Result{
		ID:             id,
		Line:           line,
		Aircraft:       a.ID,
		Command:        in.String(),
		From:           out.From,
		To:             out.To,
		Clearance:      out.Clearance,
		Releases:       out.Releases,
		Sequence:       fx.view.Sequence,
		SimTimeSeconds: now,
	}
	fx.journal = append(fx.journal,
		journalEntry{command: s.commandRecord(id, line, in, nil)},
		journalEntry{clearance: &ClearanceRecord{
			CommandID:      id,
			Aircraft:       a.ID,
			Text:           out.Clearance,
			FromState:      out.From.String(),
			ToState:        out.To.String(),
			Runway:         in.Runway,
			Gate:           in.Gate,
			SimTimeSeconds: now,
			CreatedAt:      time.Now().UTC(),
		}},
	)
	s.logger.Info("Command applied",
		logger.String("line", line),
		logger.String("from", out.From.String()),
		logger.String("to", out.To.String()))
	return res, nil
}

func (s *Service) commandRecord(id, line string, in command.Instruction, err error) *CommandRecord {
	rec := &CommandRecord{
		ID:             id,
		Line:           line,
		Aircraft:       in.Aircraft,
		Accepted:       err == nil,
		SimTimeSeconds: s.simTime.Seconds(),
		CreatedAt:      time.Now().UTC(),
	}
	if in.Aircraft != "" {
		rec.Command = in.Kind.Token()
	}
	if err != nil {
		rec.Category = Classify(err)
		rec.Message = err.Error()
	}
	return rec
}

func (s *Service) announceEligible(r types.RunwayID, next types.AircraftID) {
	s.radio.add(RadioMessage{SimTimeSeconds: s.simTime.Seconds(), From: Tower, Text: aircraft.RunwayClear(next, r)})
}

func (s *Service) spawnLocked() {
	approaching := 0
	for _, a := range s.aircraft {
		if a.Effective().Phase == aircraft.Approaching {
			approaching++
		}
	}
	if approaching >= s.spawner.opts.MaxArrivals {
		return
	}
	id, ok := s.spawner.callsign(func(id types.AircraftID) bool {
		_, taken := s.aircraft[id]
		return taken
	})
	if !ok {
		return
	}
	r := s.spawner.runway(s.airport.RunwayIDs())
	a, err := aircraft.NewApproaching(id, r, s.env())
	if err != nil {
		s.logger.Warn("Failed to spawn arrival", logger.Error(err))
		return
	}
	s.insert(a)
	s.stats.Spawned++
	s.radio.add(RadioMessage{SimTimeSeconds: s.simTime.Seconds(), From: string(id), Text: onFinal(id, r)})
	s.logger.Info("Arrival spawned", logger.String("aircraft", string(id)), logger.String("runway", string(r)))
}

func (s *Service) insert(a *aircraft.Aircraft) {
	s.aircraft[a.ID] = a
	i := sort.Search(len(s.order), func(i int) bool { return s.order[i] >= a.ID })
	s.order = append(s.order, "")
	copy(s.order[i+1:], s.order[i:])
	s.order[i] = a.ID
}

func (s *Service) env() aircraft.Env {
	return aircraft.Env{Airport: s.airport, Resources: s.resources}
}

func (s *Service) fleet() []*aircraft.Aircraft {
	out := make([]*aircraft.Aircraft, len(s.order))
	for i, id := range s.order {
		out[i] = s.aircraft[id]
	}
	return out
}

// publishLocked bumps the sequence and swaps in a new view. Caller holds mu.
func (s *Service) publishLocked() *View {
	s.sequence++
	v := s.buildView()
	s.view.Store(v)
	return v
}

func (s *Service) buildView() *View {
	v := &View{
		Sequence:       s.sequence,
		SimTimeSeconds: s.simTime.Seconds(),
		Airport:        s.static,
		Aircraft:       make([]AircraftView, 0, len(s.order)),
		Runways:        s.resources.Runways(),
		Gates:          s.resources.Gates(),
		Stats:          s.stats,
		Radio:          s.radio.snapshot(),
	}
	for _, id := range s.order {
		v.Aircraft = append(v.Aircraft, newAircraftView(s.aircraft[id], s.airport))
	}
	return v
}

func (s *Service) notify(v *View) {
	s.pubMu.RLock()
	defer s.pubMu.RUnlock()
	for _, p := range s.publishers {
		p.Publish(v)
	}
}

// registry resolves names for the interpreter. Only used while mu is held.
type registry struct{ s *Service }

func (r registry) HasAircraft(id types.AircraftID) bool {
	_, ok := r.s.aircraft[id]
	return ok
}

func (r registry) Airport() *airport.Model { return r.s.airport }
