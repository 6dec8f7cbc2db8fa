package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hilaltech/miqat/internal/athan"
	"github.com/hilaltech/miqat/internal/geo"
	"github.com/hilaltech/miqat/internal/model"
)

// DefaultTickInterval is how often a mounted session refreshes its "now".
const DefaultTickInterval = 60 * time.Second

// Options tunes one display session.
//
// RecomputeOnTick selects the corrected next-marking semantics: the
// highlighted entry is re-derived on every tick and the whole schedule is
// recomputed when the calendar day rolls over. When false (the default) the
// marking is frozen at computation time and only the countdown text moves,
// matching the screen's historical behavior.
type Options struct {
	TickInterval    time.Duration
	RecomputeOnTick bool
	Now             func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Session is the live state of one mounted prayer-times screen. All state is
// local to the session and discarded on unmount; nothing persists.
type Session struct {
	ScreenID int
	DeviceID string

	geocoder geo.Geocoder
	calc     athan.Calculator
	opts     Options
	onUpdate func(*Session, model.Schedule)

	mu           sync.Mutex
	schedule     model.Schedule
	locationText string
	coords       *model.Coordinates
	loading      bool
	now          time.Time

	stopOnce sync.Once
	done     chan struct{}
}

// Snapshot is a consistent copy of session state for rendering.
type Snapshot struct {
	Entries      []model.PrayerEntry
	LocationText string
	Coordinates  *model.Coordinates
	Loading      bool
	Now          time.Time
	Countdown    string
}

func newSession(screenID int, deviceID string, geocoder geo.Geocoder, calc athan.Calculator, opts Options, onUpdate func(*Session, model.Schedule)) *Session {
	opts = opts.withDefaults()
	s := &Session{
		ScreenID: screenID,
		DeviceID: deviceID,
		geocoder: geocoder,
		calc:     calc,
		opts:     opts,
		onUpdate: onUpdate,
		now:      opts.Now(),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// run owns the periodic refresh for the lifetime of the mount. The ticker is
// stopped on every exit path so no update can fire after Stop returns the
// session to the manager.
func (s *Session) run() {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			// a tick may already be queued when Stop lands; never
			// process it after teardown
			select {
			case <-s.done:
				return
			default:
			}
			s.tick()
		}
	}
}

// Stop tears the session down. Safe to call more than once.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Done exposes the teardown signal, mainly for tests.
func (s *Session) Done() <-chan struct{} { return s.done }

// tick advances "now". Under freeze semantics that is all it does: entries
// and their next flag stay exactly as computed. Under recompute semantics it
// re-derives the marking and rebuilds the schedule after midnight.
func (s *Session) tick() {
	s.mu.Lock()
	prevDay := s.now.YearDay()
	s.now = s.opts.Now()
	rolledOver := s.now.YearDay() != prevDay
	recompute := s.opts.RecomputeOnTick && rolledOver && s.coords != nil
	if s.opts.RecomputeOnTick && !recompute && len(s.schedule.Entries) > 0 {
		athan.Remark(s.schedule.Entries, s.now)
	}
	var coords model.Coordinates
	if recompute {
		coords = *s.coords
	}
	s.mu.Unlock()

	if recompute {
		if err := s.compute(context.Background(), coords); err != nil {
			log.Error().Err(err).Int("screen_id", s.ScreenID).
				Msg("daily rollover recompute failed")
		}
	}
}

// UseDeviceLocation handles a position reported by the device: store the
// coordinates, reverse-geocode them to "city, country", then compute the
// schedule. Failures surface as alerts; fields already set stay set.
func (s *Session) UseDeviceLocation(ctx context.Context, coords model.Coordinates) error {
	s.setLoading(true)
	defer s.setLoading(false)

	s.mu.Lock()
	c := coords
	s.coords = &c
	s.mu.Unlock()

	text, err := s.geocoder.Reverse(ctx, coords)
	if err != nil {
		return newAlert(GeocodeFailure, "couldn't resolve your location", err)
	}

	s.mu.Lock()
	s.locationText = text
	s.mu.Unlock()

	if err := s.compute(ctx, coords); err != nil {
		return newAlert(CalculationFailure, "couldn't compute prayer times", err)
	}
	return nil
}

// UseManualLocation forward-geocodes user text and computes the schedule for
// the first candidate. Empty or whitespace-only input is rejected before any
// geocoding call happens.
func (s *Session) UseManualLocation(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return newAlert(ValidationFailure, "please enter a location", nil)
	}

	s.setLoading(true)
	defer s.setLoading(false)

	places, err := s.geocoder.Forward(ctx, strings.TrimSpace(query))
	if err != nil {
		if errors.Is(err, geo.ErrNoResults) {
			return newAlert(GeocodeFailure, "location not found", err)
		}
		return newAlert(GeocodeFailure, "couldn't look up that location", err)
	}
	if len(places) == 0 {
		return newAlert(GeocodeFailure, "location not found", geo.ErrNoResults)
	}

	first := places[0]
	s.mu.Lock()
	c := first.Coordinates
	s.coords = &c
	s.locationText = first.DisplayName
	s.mu.Unlock()

	if err := s.compute(ctx, first.Coordinates); err != nil {
		return newAlert(CalculationFailure, "couldn't compute prayer times", err)
	}
	return nil
}

// compute asks the external calculator for today's timings and replaces the
// schedule. On failure the previous schedule is left untouched.
func (s *Session) compute(ctx context.Context, coords model.Coordinates) error {
	now := s.opts.Now()
	timings, err := s.calc.DailyTimings(ctx, coords, now)
	if err != nil {
		return err
	}
	sched := athan.BuildSchedule(timings, now)

	s.mu.Lock()
	s.schedule = sched
	s.now = now
	s.mu.Unlock()

	if s.onUpdate != nil {
		s.onUpdate(s, sched)
	}
	return nil
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// Loading reports whether a location operation is in flight. Advisory only;
// concurrent operations are not excluded at this layer.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Snapshot returns a copy of the current state plus the rendered countdown
// for the marked entry.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]model.PrayerEntry, len(s.schedule.Entries))
	copy(entries, s.schedule.Entries)

	snap := Snapshot{
		Entries:      entries,
		LocationText: s.locationText,
		Loading:      s.loading,
		Now:          s.now,
	}
	if s.coords != nil {
		c := *s.coords
		snap.Coordinates = &c
	}
	for _, e := range entries {
		if e.IsNext {
			snap.Countdown = athan.Countdown(e.Time, s.now)
			break
		}
	}
	return snap
}
