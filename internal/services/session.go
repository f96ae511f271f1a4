package services

import (
	"context"
	"sync"
	"time"

	"kiosk_pos_backend/pkg/utils"

	"github.com/google/uuid"
)

// Phase is the checkout state of a session.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseReviewing       Phase = "reviewing"
	PhaseAwaitingPayment Phase = "awaiting_payment"
	PhaseCommitting      Phase = "committing"
	PhaseCompleted       Phase = "completed"
	PhaseFailed          Phase = "failed"
)

var phaseTransitions = map[Phase][]Phase{
	PhaseIdle:            {PhaseReviewing},
	PhaseReviewing:       {PhaseReviewing, PhaseAwaitingPayment, PhaseIdle},
	PhaseAwaitingPayment: {PhaseCommitting, PhaseIdle},
	PhaseCommitting:      {PhaseCompleted, PhaseFailed},
	PhaseCompleted:       {PhaseIdle},
	PhaseFailed:          {PhaseIdle},
}

// CanTransition reports whether from -> to is a legal checkout step.
func CanTransition(from, to Phase) bool {
	for _, p := range phaseTransitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// Session is the state of one kiosk client: its cart, undo history and checkout phase.
// All access goes through acquire so one request at a time touches it.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu           sync.Mutex
	cart         *Cart
	undo         *undoStack
	phase        Phase
	lastActivity time.Time
	idleTimeout  time.Duration
	now          func() time.Time
}

func newSession(id string, idleTimeout time.Duration, undoLimit int, now func() time.Time) *Session {
	t := now()
	return &Session{
		ID:           id,
		CreatedAt:    t,
		cart:         NewCart(),
		undo:         newUndoStack(undoLimit),
		phase:        PhaseIdle,
		lastActivity: t,
		idleTimeout:  idleTimeout,
		now:          now,
	}
}

// acquire locks the session, applies the idle reset and records activity.
// The returned func releases the lock.
func (s *Session) acquire() func() {
	s.mu.Lock()
	now := s.now()
	if s.isIdleLocked(now) {
		utils.LogInfo("Kiosk session reset after inactivity", map[string]interface{}{
			"session_id": s.ID,
			"idle_for":   now.Sub(s.lastActivity).String(),
		})
		s.resetLocked()
	}
	s.lastActivity = now
	return s.mu.Unlock
}

func (s *Session) isIdleLocked(now time.Time) bool {
	return s.idleTimeout > 0 && s.phase != PhaseCommitting && now.Sub(s.lastActivity) > s.idleTimeout
}

func (s *Session) resetLocked() {
	s.cart.reset()
	s.undo.clear()
	s.phase = PhaseIdle
}

func (s *Session) transitionLocked(to Phase) error {
	if !CanTransition(s.phase, to) {
		return ErrInvalidCheckoutState
	}
	s.phase = to
	return nil
}

// Phase returns the current checkout phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// SessionStore holds the live kiosk sessions in memory.
type SessionStore struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	idleTimeout time.Duration
	undoLimit   int
	// evictAfter removes sessions nobody has touched for this long.
	evictAfter time.Duration
	now        func() time.Time
}

func NewSessionStore(idleTimeout time.Duration, undoLimit int) *SessionStore {
	return &SessionStore{
		sessions:    make(map[string]*Session),
		idleTimeout: idleTimeout,
		undoLimit:   undoLimit,
		evictAfter:  24 * time.Hour,
		now:         time.Now,
	}
}

// Create starts a new empty session.
func (st *SessionStore) Create() *Session {
	sess := newSession(uuid.NewString(), st.idleTimeout, st.undoLimit, st.now)
	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()
	utils.LogDebug("Kiosk session created", map[string]interface{}{"session_id": sess.ID})
	return sess
}

func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep resets idle sessions and evicts abandoned ones. It returns how many
// sessions were reset and evicted.
func (st *SessionStore) Sweep() (reset, evicted int) {
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()
	for id, sess := range st.sessions {
		if !sess.mu.TryLock() {
			continue // in use; acquire applies the idle rule itself
		}
		idleFor := now.Sub(sess.lastActivity)
		switch {
		case st.evictAfter > 0 && idleFor > st.evictAfter && sess.phase != PhaseCommitting:
			delete(st.sessions, id)
			evicted++
		case sess.isIdleLocked(now) && (!sess.cart.IsEmpty() || sess.undo.len() > 0 || sess.phase != PhaseIdle):
			sess.resetLocked()
			reset++
		}
		sess.mu.Unlock()
	}
	return reset, evicted
}

// RunJanitor sweeps every interval until ctx is done.
func (st *SessionStore) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if reset, evicted := st.Sweep(); reset+evicted > 0 {
				utils.LogInfo("Kiosk session sweep", map[string]interface{}{"reset": reset, "evicted": evicted})
			}
		}
	}
}
