package game

import "sync"

// Store maps channel ids to their session. Deleting a channel's session
// also cancels the channel's pending timer in the same operation, so no
// orphaned callback can resurrect a removed game.
type Store interface {
	Get(channelID string) (*Session, bool)
	Set(s *Session)
	Delete(channelID string)
	Len() int
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	timers   *TimerRegistry
}

func NewMemoryStore(timers *TimerRegistry) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		timers:   timers,
	}
}

func (m *MemoryStore) Get(channelID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[channelID]
	return s, ok
}

func (m *MemoryStore) Set(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ChannelID] = s
}

func (m *MemoryStore) Delete(channelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, channelID)
	m.timers.Delete(channelID)
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
