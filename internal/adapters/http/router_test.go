package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/voice-quickstart/internal/adapters/sink"
	"github.com/dkeye/voice-quickstart/internal/config"
	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/dkeye/voice-quickstart/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shellFixture struct {
	shell  *Shell
	router *gin.Engine
}

func newShellFixture(t *testing.T) *shellFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	shell := &Shell{
		Form:    NewForm(),
		Leave:   NewLeaveButton(),
		Sink:    sink.NewMemory(),
		Metrics: metrics.New(),
		Limiter: NewJoinRateLimiter(2, time.Minute),
	}
	cfg := &config.Config{Mode: "test", Secret: "test-secret", StaticPath: t.TempDir()}
	return &shellFixture{shell: shell, router: SetupRouter(cfg, shell)}
}

func (f *shellFixture) do(method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// openForm starts a Select and waits until the form accepts submissions.
func openForm(t *testing.T, form *Form) <-chan Selection {
	t.Helper()
	out := make(chan Selection, 1)
	go func() {
		s, err := form.Select(context.Background())
		if err == nil {
			out <- s
		}
	}()
	require.Eventually(t, form.Open, time.Second, 5*time.Millisecond)
	return out
}

func TestJoin_ResolvesFormAndRemembersSelection(t *testing.T) {
	f := newShellFixture(t)
	selected := openForm(t, f.shell.Form)

	rec := f.do(http.MethodPost, "/api/join", `{"identity":" alice ","room":"lobby"}`, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	sel := <-selected
	assert.Equal(t, domain.ParticipantID("alice"), sel.Credential.Identity)
	assert.Equal(t, domain.RoomName("lobby"), sel.Room)

	cookies := rec.Result().Cookies()
	var token string
	for _, ck := range cookies {
		if ck.Name == "ct" {
			token = ck.Value
		}
	}
	assert.Equal(t, token, sel.Credential.Token, "client token doubles as credential token")

	rec = f.do(http.MethodGet, "/api/whoami", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var who map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &who))
	assert.Equal(t, "alice", who["identity"])
	assert.Equal(t, "lobby", who["room"])
	assert.Equal(t, false, who["form_open"])
}

func TestJoin_Rejections(t *testing.T) {
	f := newShellFixture(t)

	rec := f.do(http.MethodPost, "/api/join", `{"identity":"alice","room":"lobby"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "form not open")

	rec = f.do(http.MethodPost, "/api/join", `{"identity":"","room":"lobby"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/join", `{"identity":"alice","room":"`+strings.Repeat("r", 40)+`"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/join", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoin_RateLimitedPerClient(t *testing.T) {
	f := newShellFixture(t)
	first := f.do(http.MethodPost, "/api/join", `{"identity":"alice","room":"lobby"}`, nil)
	cookies := first.Result().Cookies()

	f.do(http.MethodPost, "/api/join", `{"identity":"alice","room":"lobby"}`, cookies)
	rec := f.do(http.MethodPost, "/api/join", `{"identity":"alice","room":"lobby"}`, cookies)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.InDelta(t, 60, retry, 1)

	// malformed joins are rejected before they count
	other := f.do(http.MethodPost, "/api/join", `{"identity":"","room":"lobby"}`, nil)
	assert.Equal(t, http.StatusBadRequest, other.Code)
	rec = f.do(http.MethodPost, "/api/join", `{"identity":"bob","room":"lobby"}`, other.Result().Cookies())
	assert.NotEqual(t, http.StatusTooManyRequests, rec.Code)
}

func TestLeave(t *testing.T) {
	f := newShellFixture(t)
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/leave", "", nil).Code)

	pressed := 0
	sub := f.shell.Leave.OnActivate(func() { pressed++ })
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodPost, "/api/leave", "", nil).Code)
	assert.Equal(t, 1, pressed)

	sub.Cancel()
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/leave", "", nil).Code)
}

func TestParticipantsAndMetrics(t *testing.T) {
	f := newShellFixture(t)
	el := core.NewElement("TR_cam", domain.TrackKindVideo)
	el.SetWidth(core.FullWidth)
	el.SetMeter(func() core.Rendered { return core.Rendered{Packets: 12, Bytes: 4800} })
	el.AppendTo(f.shell.Sink)
	f.shell.Metrics.IncAttach("video")

	rec := f.do(http.MethodGet, "/api/participants", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Elements []sink.View `json:"elements"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Elements, 1)
	assert.Equal(t, domain.TrackID("TR_cam"), body.Elements[0].Track)
	assert.Equal(t, "100%", body.Elements[0].Width)
	require.NotNil(t, body.Elements[0].Rendered)
	assert.Equal(t, uint64(12), body.Elements[0].Rendered.Packets)
	assert.Contains(t, rec.Body.String(), `"rendered":{"packets":12,"bytes":4800,"muted":false}`)

	rec = f.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "quickstart_track_attach_total")
}
