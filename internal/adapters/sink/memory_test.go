package sink

import (
	"testing"

	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_AppendRemoveKeepsOrder(t *testing.T) {
	m := NewMemory()
	a := core.NewElement("A", domain.TrackKindVideo)
	b := core.NewElement("B", domain.TrackKindAudio)
	a.SetWidth(core.FullWidth)

	a.AppendTo(m)
	b.AppendTo(m)
	require.Equal(t, 2, m.Len())

	views := m.Snapshot()
	assert.Equal(t, domain.TrackID("A"), views[0].Track)
	assert.Equal(t, "100%", views[0].Width)
	assert.Equal(t, domain.TrackKindAudio, views[1].Kind)

	a.Remove()
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, b.ID(), m.Snapshot()[0].ID)
}

func TestMemory_DuplicateAndUnknown(t *testing.T) {
	m := NewMemory()
	el := core.NewElement("A", domain.TrackKindVideo)
	m.Append(el)
	m.Append(el)
	assert.Equal(t, 1, m.Len())

	m.RemoveChild(core.NewElement("X", domain.TrackKindVideo))
	assert.Equal(t, 1, m.Len())

	m.Clear()
	assert.Zero(t, m.Len())
	assert.Empty(t, m.Snapshot())
}

func TestMemory_SnapshotCarriesRendered(t *testing.T) {
	m := NewMemory()
	metered := core.NewElement("A", domain.TrackKindVideo)
	metered.SetMeter(func() core.Rendered { return core.Rendered{Packets: 3, Bytes: 120, Muted: true} })
	plain := core.NewElement("B", domain.TrackKindVideo)
	metered.AppendTo(m)
	plain.AppendTo(m)

	views := m.Snapshot()
	require.Len(t, views, 2)
	require.NotNil(t, views[0].Rendered)
	assert.Equal(t, core.Rendered{Packets: 3, Bytes: 120, Muted: true}, *views[0].Rendered)
	assert.Nil(t, views[1].Rendered)
}
