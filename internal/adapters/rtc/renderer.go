package rtc

import (
	"sync/atomic"

	"github.com/dkeye/voice-quickstart/internal/core"
)

type RenderState int32

const (
	RenderStateOk RenderState = iota
	RenderStateMuted
	RenderStateDelete
)

// renderer consumes the packets of one remote track for one element.
type renderer struct {
	el      *core.Element
	state   atomic.Int32 // Zero by default (RenderStateOk)
	packets atomic.Uint64
	bytes   atomic.Uint64
	lastSeq atomic.Uint32
}

func newRenderer(el *core.Element) *renderer {
	return &renderer{el: el}
}

func (r *renderer) State() RenderState { return RenderState(r.state.Load()) }
func (r *renderer) MarkOk()            { r.state.Store(int32(RenderStateOk)) }
func (r *renderer) MarkMuted()         { r.state.Store(int32(RenderStateMuted)) }
func (r *renderer) MarkDelete()        { r.state.Store(int32(RenderStateDelete)) }

func (r *renderer) consume(seq uint16, size int) {
	r.packets.Add(1)
	r.bytes.Add(uint64(size))
	r.lastSeq.Store(uint32(seq))
}

// Stats is what an element has rendered so far.
type Stats struct {
	Packets uint64 `json:"packets"`
	Bytes   uint64 `json:"bytes"`
	LastSeq uint16 `json:"last_seq"`
}

func (r *renderer) stats() Stats {
	return Stats{
		Packets: r.packets.Load(),
		Bytes:   r.bytes.Load(),
		LastSeq: uint16(r.lastSeq.Load()),
	}
}
