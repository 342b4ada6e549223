package protocol

import (
	"io"
	"sync"
)

// Session is one connected peer. UserID/GroupID start at (0, 0) until
// the handshake (CONNECT:<user>:<group>) assigns a real identity; a
// session may be rekeyed any number of times over its lifetime.
type Session struct {
	ID      uint64
	UserID  uint32
	GroupID uint32
	Name    string
	Writer  io.Writer
	mu      sync.Mutex
}

// Send serializes writes to the session's underlying connection so that
// concurrent callers never interleave two frames on the wire.
func (s *Session) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.Writer.Write(data)
	return err
}

// SessionManager is the server's session table: a primary index keyed by
// session_id plus a secondary index keyed by user_id, both guarded by a
// single mutex (deliberately not sharded, since session
// churn is low relative to frame throughput).
type SessionManager struct {
	mu     sync.Mutex
	nextID uint64
	bySess map[uint64]*Session
	byUser map[uint32]map[uint64]struct{}
}

// NewSessionManager returns an empty session table. Session ids are
// assigned starting at 1.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		bySess: make(map[uint64]*Session),
		byUser: make(map[uint32]map[uint64]struct{}),
	}
}

// Create registers a new session with identity (0, 0) and returns it. A
// session with user_id 0 is not entered into by_user until SetIdentity
// gives it a real user_id.
func (m *SessionManager) Create(w io.Writer) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s := &Session{
		ID:      m.nextID,
		UserID:  0,
		GroupID: 0,
		Writer:  w,
	}
	m.bySess[s.ID] = s
	return s
}

// SetIdentity assigns (userID, groupID) to an existing session, updating
// the by_user secondary index. Called once per successful handshake; a
// session whose handshake arrives with u=0 is recorded at face value,
// which removes it from by_user with no further key (see SPEC_FULL.md's
// Open Question resolution — u=0 is not treated as "no identity").
func (m *SessionManager) SetIdentity(sessionID uint64, userID, groupID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.bySess[sessionID]
	if !ok {
		return
	}
	if oldSet, ok := m.byUser[s.UserID]; ok {
		delete(oldSet, sessionID)
		if len(oldSet) == 0 {
			delete(m.byUser, s.UserID)
		}
	}
	s.UserID = userID
	s.GroupID = groupID
	if userID != 0 {
		if m.byUser[userID] == nil {
			m.byUser[userID] = make(map[uint64]struct{})
		}
		m.byUser[userID][sessionID] = struct{}{}
	}
}

// Destroy removes a session from both indices. Idempotent: destroying an
// unknown or already-removed session id is a no-op.
func (m *SessionManager) Destroy(sessionID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.bySess[sessionID]
	if !ok {
		return
	}
	delete(m.bySess, sessionID)
	if set, ok := m.byUser[s.UserID]; ok {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(m.byUser, s.UserID)
		}
	}
}

// Get returns the session for sessionID, or nil if it does not exist.
func (m *SessionManager) Get(sessionID uint64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bySess[sessionID]
}

// SnapshotAll returns every currently registered session.
func (m *SessionManager) SnapshotAll() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.bySess))
	for _, s := range m.bySess {
		out = append(out, s)
	}
	return out
}

// SnapshotUser returns every session currently registered under userID.
// A shared user_id across several connections is common — the server
// supports multiple concurrent sessions per user, so this may
// return more than one Session.
func (m *SessionManager) SnapshotUser(userID uint32) []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.byUser[userID]
	if !ok {
		return nil
	}
	out := make([]*Session, 0, len(set))
	for id := range set {
		if s, ok := m.bySess[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// SnapshotGroup returns every session whose GroupID equals groupID.
func (m *SessionManager) SnapshotGroup(groupID uint32) []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Session
	for _, s := range m.bySess {
		if s.GroupID == groupID {
			out = append(out, s)
		}
	}
	return out
}

// SnapshotUserOrGroup returns the union of SnapshotUser(userID) and
// SnapshotGroup(groupID), without duplicates.
func (m *SessionManager) SnapshotUserOrGroup(userID, groupID uint32) []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[uint64]struct{})
	var out []*Session
	if set, ok := m.byUser[userID]; ok {
		for id := range set {
			if s, ok := m.bySess[id]; ok {
				seen[id] = struct{}{}
				out = append(out, s)
			}
		}
	}
	for _, s := range m.bySess {
		if s.GroupID == groupID {
			if _, dup := seen[s.ID]; !dup {
				seen[s.ID] = struct{}{}
				out = append(out, s)
			}
		}
	}
	return out
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bySess)
}
