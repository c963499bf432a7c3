package sale

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/config"
)

const persistTimeout = 2 * time.Second

// Manager keeps the live sessions of this instance and mirrors them to a
// SnapshotStore.  A session missing from memory (after a restart) is
// restored from its snapshot on first access.
type Manager struct {
	api   OrderAPI
	sink  Sink
	store SnapshotStore
	cfg   config.SaleConfig
	clock clockwork.Clock
	log   logrus.FieldLogger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a manager.  store may be nil, in which case sessions
// only live in memory.
func NewManager(api OrderAPI, sink Sink, store SnapshotStore, cfg config.SaleConfig, clk clockwork.Clock, log logrus.FieldLogger) *Manager {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if sink == nil {
		sink = nopSink{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		api:      api,
		sink:     sink,
		store:    store,
		cfg:      cfg,
		clock:    clk,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) options(id, staffID string) Options {
	return Options{
		ID:       id,
		StaffID:  staffID,
		API:      m.api,
		Sink:     m.sink,
		Config:   m.cfg,
		Clock:    m.clock,
		Log:      m.log,
		OnChange: m.persist,
	}
}

// Create opens an empty session for the cashier.
func (m *Manager) Create(ctx context.Context, staffID string) *Session {
	s := NewSession(m.options(uuid.NewString(), staffID))
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	m.log.WithFields(logrus.Fields{"session_id": s.ID(), "staff_id": staffID}).Info("sale session opened")
	m.persist(s)
	return s
}

// Get returns a live session, restoring it from the store if needed.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	if m.store == nil {
		return nil, ErrSessionNotFound
	}
	snap, err := m.store.LoadSnapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if snap == nil {
		return nil, ErrSessionNotFound
	}
	s := restoreSession(context.WithoutCancel(ctx), m.options(snap.ID, snap.StaffID), *snap)
	m.sessions[id] = s
	m.log.WithFields(logrus.Fields{"session_id": id, "step": snap.Step}).Info("sale session restored")
	return s, nil
}

// Close stops the session timers, including a running ZaloPay poll, and
// forgets the session.
func (m *Manager) Close(ctx context.Context, id string) error {
	s, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	s.Close()
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	if m.store != nil {
		if err := m.store.DeleteSnapshot(ctx, id); err != nil {
			m.log.WithError(err).WithField("session_id", id).Warn("delete session snapshot")
		}
	}
	m.log.WithField("session_id", id).Info("sale session closed")
	return nil
}

// Len returns the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown stops the timers of every live session.  Snapshots are kept so
// the next instance can resume them.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.Close()
		delete(m.sessions, id)
	}
}

// persist saves a snapshot.  Failures are logged; the in-memory session
// stays authoritative.
func (m *Manager) persist(s *Session) {
	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := m.store.SaveSnapshot(ctx, s.Snapshot()); err != nil {
		m.log.WithError(err).WithField("session_id", s.ID()).Warn("persist session snapshot")
	}
}
