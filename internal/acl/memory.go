package acl

import (
	"sort"
	"sync"
)

// MemoryStore keeps permissions in a map, grouped per design.
type MemoryStore struct {
	mu      sync.RWMutex
	designs map[string]map[string]Role // designID -> userID -> role
}

// NewMemoryStore creates an empty permission store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{designs: make(map[string]map[string]Role)}
}

func (m *MemoryStore) Grant(designID, userID string, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	users, ok := m.designs[designID]
	if !ok {
		users = make(map[string]Role)
		m.designs[designID] = users
	}

	users[userID] = role

	return nil
}

func (m *MemoryStore) Revoke(designID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := m.designs[designID]
	if _, ok := users[userID]; !ok {
		return ErrPermissionNotFound
	}

	delete(users, userID)

	if len(users) == 0 {
		delete(m.designs, designID)
	}

	return nil
}

func (m *MemoryStore) RevokeAll(designID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.designs, designID)

	return nil
}

func (m *MemoryStore) GetRole(designID, userID string) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	role, ok := m.designs[designID][userID]
	if !ok {
		return 0, ErrPermissionNotFound
	}

	return role, nil
}

func (m *MemoryStore) ListPermissions(designID string) ([]Permission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := m.designs[designID]
	result := make([]Permission, 0, len(users))

	for userID, role := range users {
		result = append(result, Permission{DesignID: designID, UserID: userID, Role: role})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })

	return result, nil
}

var _ Store = (*MemoryStore)(nil)
