// Package sink holds the participants container the shell renders from.
package sink

import (
	"sync"

	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/rs/zerolog/log"
)

// View is a read-only copy of a mounted element.
type View struct {
	ID       string           `json:"id"`
	Track    domain.TrackID   `json:"track"`
	Kind     domain.TrackKind `json:"kind"`
	Width    string           `json:"width"`
	Rendered *core.Rendered   `json:"rendered,omitempty"`
}

// Memory is a core.Sink keeping mounted elements in insertion order.
type Memory struct {
	mu       sync.RWMutex
	children []*core.Element
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(el *core.Element) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.children {
		if c == el {
			return
		}
	}
	m.children = append(m.children, el)
	log.Debug().Str("module", "sink").Str("element", el.ID()).Str("track", string(el.TrackID())).Msg("mounted")
}

func (m *Memory) RemoveChild(el *core.Element) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.children {
		if c == el {
			m.children = append(m.children[:i:i], m.children[i+1:]...)
			log.Debug().Str("module", "sink").Str("element", el.ID()).Msg("unmounted")
			return
		}
	}
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.children)
}

func (m *Memory) Snapshot() []View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]View, 0, len(m.children))
	for _, c := range m.children {
		v := View{ID: c.ID(), Track: c.TrackID(), Kind: c.Kind(), Width: c.Width()}
		if r, ok := c.Rendered(); ok {
			v.Rendered = &r
		}
		out = append(out, v)
	}
	return out
}

// Clear unmounts everything, e.g. between two joins.
func (m *Memory) Clear() {
	m.mu.Lock()
	children := m.children
	m.children = nil
	m.mu.Unlock()
	if len(children) > 0 {
		log.Warn().Str("module", "sink").Int("count", len(children)).Msg("cleared leftover elements")
	}
}
