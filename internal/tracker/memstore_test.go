package tracker

import (
	"fmt"
	"sort"

	serrors "github.com/rankwise/seotrack/internal/errors"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	tasks  map[string]*Task
	cycles map[string]*Cycle
	events []*Event

	failAppend error
}

func newMemStore() *memStore {
	return &memStore{
		tasks:  make(map[string]*Task),
		cycles: make(map[string]*Cycle),
	}
}

func (m *memStore) SaveTask(t *Task) error {
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *memStore) GetTask(id string) (*Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, serrors.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) ListTasks() ([]*Task, error) {
	out := make([]*Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) SaveCycle(c *Cycle) error {
	cp := *c
	m.cycles[c.ID] = &cp
	return nil
}

func (m *memStore) GetCycle(id string) (*Cycle, error) {
	c, ok := m.cycles[id]
	if !ok {
		return nil, fmt.Errorf("cycle %s: %w", id, serrors.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) ListCyclesByTask(taskID string) ([]*Cycle, error) {
	var out []*Cycle
	for _, c := range m.cycles {
		if c.TaskID == taskID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CycleNo < out[j].CycleNo })
	return out, nil
}

func (m *memStore) AppendEvent(e *Event) error {
	if m.failAppend != nil {
		return m.failAppend
	}
	cp := *e
	m.events = append(m.events, &cp)
	return nil
}

func (m *memStore) ListEvents(taskID, cycleID string) ([]*Event, error) {
	var out []*Event
	for _, e := range m.events {
		if e.TaskID == taskID && e.CycleID == cycleID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
