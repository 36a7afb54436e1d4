package task

import (
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pagescout/pagescout/pkg/model"
)

// Manager owns every task record. All operations are linearizable under one
// RWMutex; Get and List return snapshot copies, never pointers into
// manager-owned state.
type Manager struct {
	mtx   sync.RWMutex
	tasks map[string]*Task

	now func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		tasks: make(map[string]*Task),
		now:   time.Now,
	}
}

// newID renders a UUIDv4 as 32 lowercase hex characters, no dashes.
func newID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Create registers a new pending task for url and returns its snapshot.
func (m *Manager) Create(url string) Task {
	now := m.now().UTC()
	t := &Task{
		ID:        newID(),
		URL:       url,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.tasks[t.ID] = t

	return *t
}

// Get returns a snapshot of the task or ErrTaskNotFound.
func (m *Manager) Get(id string) (Task, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	t, ok := m.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return *t, nil
}

// SetStatus moves the task to status and overwrites its error message, empty
// clears. Transitions out of a terminal state return ErrTaskTerminal.
func (m *Manager) SetStatus(id string, status Status, errMsg string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if t.Status.Terminal() {
		return ErrTaskTerminal
	}

	t.Status = status
	t.Error = errMsg
	t.UpdatedAt = m.now().UTC()

	return nil
}

// SetResult publishes the result, marks the task completed and clears any
// error recorded by earlier transitions.
func (m *Manager) SetResult(id string, result *model.Result) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if t.Status.Terminal() {
		return ErrTaskTerminal
	}

	t.Result = result
	t.Status = StatusCompleted
	t.Error = ""
	t.UpdatedAt = m.now().UTC()

	return nil
}

// Len returns the number of tracked tasks.
func (m *Manager) Len() int {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	return len(m.tasks)
}

// List returns snapshots of every task, oldest first.
func (m *Manager) List() []Task {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	tasks := make([]Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, *t)
	}

	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})

	return tasks
}
