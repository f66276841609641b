package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dkeye/voice-quickstart/internal/adapters/sink"
	"github.com/dkeye/voice-quickstart/internal/config"
	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/dkeye/voice-quickstart/internal/metrics"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Shell is what the HTTP front end drives and shows.
type Shell struct {
	Form    *Form
	Leave   *LeaveButton
	Sink    *sink.Memory
	Metrics *metrics.Metrics
	Limiter *JoinRateLimiter
}

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, shell *Shell) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	if shell.Limiter == nil {
		shell.Limiter = NewJoinRateLimiter(5, time.Minute)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("QuickstartSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	if shell.Metrics != nil {
		r.GET("/metrics", gin.WrapH(shell.Metrics.Handler()))
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")
	api.POST("/join", shell.handleJoin)
	api.POST("/leave", shell.handleLeave)
	api.GET("/whoami", shell.handleWhoAmI)
	api.GET("/participants", shell.handleParticipants)

	return r
}

type joinRequest struct {
	Identity string `json:"identity" form:"identity"`
	Room     string `json:"room" form:"room"`
}

func (s *Shell) handleJoin(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}
	cred, err := domain.NewCredential(req.Identity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room, err := domain.ParseRoomName(req.Room)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token := c.GetString("client_token")
	if ok, retry := s.Limiter.Allow(token); !ok {
		log.Warn().Str("module", "adapters.http").Str("sid", token).Dur("retry_after", retry).Msg("join rate limited")
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many joins"})
		return
	}
	cred.Token = token

	if err := s.Form.Submit(Selection{Credential: cred, Room: room}); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrFormClosed) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	sess := sessions.Default(c)
	sess.Set("identity", string(cred.Identity))
	sess.Set("room", string(room))
	if err := sess.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
	}

	log.Info().Str("module", "adapters.http").Str("participant", string(cred.Identity)).Str("room", string(room)).Msg("join submitted")
	c.JSON(http.StatusAccepted, gin.H{"identity": cred.Identity, "room": room})
}

func (s *Shell) handleLeave(c *gin.Context) {
	if !s.Leave.Press() {
		c.JSON(http.StatusConflict, gin.H{"error": "not in a room"})
		return
	}
	log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("leave pressed")
	c.Status(http.StatusNoContent)
}

func (s *Shell) handleWhoAmI(c *gin.Context) {
	sess := sessions.Default(c)
	identity, _ := sess.Get("identity").(string)
	room, _ := sess.Get("room").(string)
	c.JSON(http.StatusOK, gin.H{
		"identity":  identity,
		"room":      room,
		"form_open": s.Form.Open(),
	})
}

func (s *Shell) handleParticipants(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"elements": s.Sink.Snapshot(),
	})
}
