package http

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForm_ResolvesOncePerSelect(t *testing.T) {
	form := NewForm()
	assert.ErrorIs(t, form.Submit(Selection{Room: "a"}), ErrFormClosed)

	got := openForm(t, form)
	_, err := form.Select(context.Background())
	assert.ErrorIs(t, err, ErrFormBusy)

	require.NoError(t, form.Submit(Selection{Room: "a"}))
	assert.ErrorIs(t, form.Submit(Selection{Room: "b"}), ErrFormClosed)
	assert.Equal(t, "a", string((<-got).Room))
	assert.False(t, form.Open())
}

func TestForm_SelectHonoursContext(t *testing.T) {
	form := NewForm()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := form.Select(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, form.Open())
}

func TestLeaveButton_Press(t *testing.T) {
	b := NewLeaveButton()
	assert.False(t, b.Press())

	n := 0
	b.OnActivate(func() { n++ })
	assert.True(t, b.Press())
	assert.Equal(t, 1, n)
}

func TestJoinRateLimiter_Window(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewJoinRateLimiter(2, 30*time.Second)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("a")
	assert.True(t, ok)
	now = now.Add(10 * time.Second)
	ok, _ = rl.Allow("a")
	assert.True(t, ok)

	ok, retry := rl.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, 20*time.Second, retry, "until the first attempt expires")
	ok, _ = rl.Allow("b")
	assert.True(t, ok)

	now = now.Add(21 * time.Second)
	ok, _ = rl.Allow("a")
	assert.True(t, ok)
}

func TestJoinRateLimiter_ForgetsIdleTokens(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewJoinRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	rl.Allow("b")
	assert.Equal(t, 2, rl.Tracked())

	now = now.Add(2 * time.Minute)
	rl.Allow("c")
	assert.Equal(t, 1, rl.Tracked())
}
