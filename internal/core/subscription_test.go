package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitter_OnAndCancel(t *testing.T) {
	var e Emitter[int]
	var got []int
	sub := e.On(func(v int) { got = append(got, v) })

	e.Emit(1)
	e.Emit(2)
	sub.Cancel()
	sub.Cancel()
	e.Emit(3)

	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, 0, e.Len())
}

func TestEmitter_OnceFiresOnce(t *testing.T) {
	var e Emitter[string]
	calls := 0
	e.Once(func(string) { calls++ })
	e.Emit("a")
	e.Emit("b")
	assert.Equal(t, 1, calls)
}

func TestEmitter_CancelDuringEmitSkipsLaterHandlers(t *testing.T) {
	var e Emitter[int]
	var second *Subscription
	secondCalls := 0
	e.On(func(int) { second.Cancel() })
	second = e.On(func(int) { secondCalls++ })

	e.Emit(1)
	assert.Equal(t, 0, secondCalls)
}

func TestEmitter_HandlerAddedDuringEmitWaitsForNextEmit(t *testing.T) {
	var e Emitter[int]
	late := 0
	e.Once(func(int) { e.On(func(int) { late++ }) })
	e.Emit(1)
	assert.Equal(t, 0, late)
	e.Emit(2)
	assert.Equal(t, 1, late)
}

func TestBag_CancelAll(t *testing.T) {
	var e Emitter[int]
	var b Bag
	calls := 0
	b.Add(e.On(func(int) { calls++ }))
	b.Add(e.On(func(int) { calls++ }))
	assert.Equal(t, 2, b.Len())

	b.Cancel()
	e.Emit(1)
	assert.Equal(t, 0, calls)

	b.Add(e.On(func(int) { calls++ }))
	e.Emit(2)
	assert.Equal(t, 0, calls)

	var nilSub *Subscription
	assert.NotPanics(t, nilSub.Cancel)
}
