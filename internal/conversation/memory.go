package conversation

import (
	"context"
	"sync"

	"fingreat/internal/types"
)

type userData struct {
	Turns   []types.Turn `json:"turns"`
	Context string       `json:"context,omitempty"`
}

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*userData // agent -> user
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{data: make(map[string]map[string]*userData, len(AgentTypes))}
	for _, a := range AgentTypes {
		m.data[a] = make(map[string]*userData)
	}
	return m
}

func (m *MemoryStore) entry(agent, user string) *userData {
	ud, ok := m.data[agent][user]
	if !ok {
		ud = &userData{}
		m.data[agent][user] = ud
	}
	return ud
}

func (m *MemoryStore) Append(_ context.Context, agent, user string, turn types.Turn) error {
	if err := validAgent(agent); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ud := m.entry(agent, user)
	ud.Turns = append(ud.Turns, turn)
	return nil
}

func (m *MemoryStore) SetLastReply(_ context.Context, agent, user, reply string) error {
	if err := validAgent(agent); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ud, ok := m.data[agent][user]
	if !ok || len(ud.Turns) == 0 {
		return nil
	}
	ud.Turns[len(ud.Turns)-1].Assistant = reply
	return nil
}

func (m *MemoryStore) History(_ context.Context, agent, user string) ([]types.Turn, error) {
	if err := validAgent(agent); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []types.Turn{}
	if ud, ok := m.data[agent][user]; ok {
		out = append(out, ud.Turns...)
	}
	return out, nil
}

func (m *MemoryStore) Clear(_ context.Context, agent, user string) error {
	if err := validAgent(agent); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range clearTargets(agent) {
		delete(m.data[a], user)
	}
	return nil
}

func (m *MemoryStore) Context(_ context.Context, agent, user string) (string, error) {
	if err := validAgent(agent); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if ud, ok := m.data[agent][user]; ok {
		return ud.Context, nil
	}
	return "", nil
}

func (m *MemoryStore) SetContext(_ context.Context, agent, user, text string) error {
	if err := validAgent(agent); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(agent, user).Context = text
	return nil
}

func (m *MemoryStore) Close() error { return nil }
