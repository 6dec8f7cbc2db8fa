package session

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hilaltech/miqat/internal/athan"
	"github.com/hilaltech/miqat/internal/geo"
	"github.com/hilaltech/miqat/internal/model"
)

// Publisher pushes a refreshed schedule out to the physical screen.
// Implementations are best-effort; a nil Publisher disables pushes.
type Publisher interface {
	PublishSchedule(deviceID string, sched model.Schedule) error
}

// Manager owns at most one live Session per screen. Mounting a screen that
// already has a session replaces it and tears the old one down.
type Manager struct {
	geocoder  geo.Geocoder
	calc      athan.Calculator
	publisher Publisher
	opts      Options

	mu       sync.Mutex
	sessions map[int]*Session
}

func NewManager(geocoder geo.Geocoder, calc athan.Calculator, publisher Publisher, opts Options) *Manager {
	return &Manager{
		geocoder:  geocoder,
		calc:      calc,
		publisher: publisher,
		opts:      opts,
		sessions:  make(map[int]*Session),
	}
}

// Mount creates the display session for a screen. deviceID may be empty for
// screens that have not paired yet; they simply receive no pushes.
func (m *Manager) Mount(screenID int, deviceID string) *Session {
	s := newSession(screenID, deviceID, m.geocoder, m.calc, m.opts, m.publish)

	m.mu.Lock()
	old := m.sessions[screenID]
	m.sessions[screenID] = s
	m.mu.Unlock()

	if old != nil {
		old.Stop()
		log.Info().Int("screen_id", screenID).Msg("replaced existing display session")
	}
	return s
}

// Get returns the live session for a screen, if mounted.
func (m *Manager) Get(screenID int) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[screenID]
	return s, ok
}

// Unmount stops and forgets a screen's session. Idempotent.
func (m *Manager) Unmount(screenID int) {
	m.mu.Lock()
	s := m.sessions[screenID]
	delete(m.sessions, screenID)
	m.mu.Unlock()

	if s != nil {
		s.Stop()
	}
}

// StopAll tears down every session, used at server shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[int]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}

func (m *Manager) publish(s *Session, sched model.Schedule) {
	if m.publisher == nil || s.DeviceID == "" {
		return
	}
	if err := m.publisher.PublishSchedule(s.DeviceID, sched); err != nil {
		log.Warn().Err(err).Str("device_id", s.DeviceID).
			Msg("failed to push schedule to screen")
	}
}
