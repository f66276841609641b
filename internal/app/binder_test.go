package app

import (
	"testing"

	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/dkeye/voice-quickstart/internal/metrics"
	"github.com/dkeye/voice-quickstart/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinder_AttachAppliesFullWidth(t *testing.T) {
	sink := testutil.NewRecordingSink()
	b := NewBinder(nil)
	tr := testutil.NewFakeTrack("TR1", domain.TrackKindVideo)

	el := b.Attach(tr, sink)

	require.Len(t, sink.Mounted(), 1)
	assert.Same(t, el, sink.Mounted()[0])
	assert.Equal(t, core.FullWidth, el.Width())
	assert.True(t, el.Mounted())
}

func TestBinder_DetachWithoutElementsIsNoop(t *testing.T) {
	sink := testutil.NewRecordingSink()
	b := NewBinder(nil)
	tr := testutil.NewFakeTrack("TR1", domain.TrackKindVideo)

	assert.NotPanics(t, func() {
		assert.Equal(t, 0, b.Detach(tr))
		assert.Equal(t, 0, b.Detach(tr))
	})
	assert.Zero(t, sink.Removals())
}

func TestBinder_DetachRemovesOnlyThatTracksElements(t *testing.T) {
	sink := testutil.NewRecordingSink()
	b := NewBinder(nil)
	a, other := testutil.NewFakeTrack("A", domain.TrackKindVideo), testutil.NewFakeTrack("B", domain.TrackKindVideo)

	b.Attach(a, sink)
	b.Attach(a, sink)
	b.Attach(other, sink)

	assert.Equal(t, 2, b.Detach(a))
	assert.False(t, sink.Contains("A"))
	assert.True(t, sink.Contains("B"))
	assert.Equal(t, 2, sink.Removals())
}

func TestBinder_RecordsMetrics(t *testing.T) {
	m := metrics.New()
	b := NewBinder(m)
	sink := testutil.NewRecordingSink()
	tr := testutil.NewFakeTrack("TR1", domain.TrackKindVideo)

	b.Attach(tr, sink)
	b.Detach(tr)

	n, err := promtest.GatherAndCount(m.Registry(), "quickstart_track_attach_total", "quickstart_track_detach_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
