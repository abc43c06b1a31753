// Package server exposes segmentation and dictionary administration over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teatak/ikseg/dictionary"
	"github.com/teatak/ikseg/logging"
	"github.com/teatak/ikseg/segmenter"
	"github.com/teatak/ikseg/wordlist"
)

// DictionaryService is the part of *dictionary.Service the API drives.
type DictionaryService interface {
	Current() *dictionary.Dictionary
	Report() dictionary.LoadReport
	AddWords(words []string) int
	DisableWords(words []string) int
	ForceReload(ctx context.Context) error
}

// Config configures the HTTP API.
type Config struct {
	Addr         string
	Debug        bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxTextLength bounds the runes accepted by /segment. Zero means no limit.
	MaxTextLength int
	// ReloadTimeout bounds a reload started by /dict/reload. The reload is
	// shared with concurrent callers, so it does not end with the request.
	ReloadTimeout time.Duration
}

// DefaultConfig listens on :8080.
func DefaultConfig() Config {
	return Config{
		Addr:          ":8080",
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		MaxTextLength: 1 << 20,
		ReloadTimeout: 2 * time.Minute,
	}
}

// Server is the HTTP front end of a dictionary service.
type Server struct {
	cfg      Config
	dict     DictionaryService
	opts     segmenter.Options
	logger   logging.Logger
	gatherer prometheus.Gatherer

	engine     *gin.Engine
	httpServer *http.Server
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		s.logger = logging.OrNop(logger)
	}
}

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// New builds the server. opts are the segmentation defaults; a request may
// switch smart mode per call.
func New(cfg Config, dict DictionaryService, opts segmenter.Options, options ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		dict:     dict,
		opts:     opts,
		logger:   logging.Nop(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, o := range options {
		o(s)
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), s.accessLog())
	s.routes(engine)
	s.engine = engine

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/healthz", s.health)
	r.POST("/segment", s.segment)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	dict := r.Group("/dict")
	dict.GET("/stats", s.stats)
	dict.POST("/words", s.addWords)
	dict.DELETE("/words", s.disableWords)
	dict.POST("/feedback", s.feedback)
	dict.POST("/reload", s.reload)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("[server] listening on %s", s.cfg.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("[server] %s %s %d %s", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}

type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, response{Success: true, Data: data})
}

func fail(c *gin.Context, status int, format string, args ...any) {
	c.JSON(status, response{Error: fmt.Sprintf(format, args...)})
}

func (s *Server) health(c *gin.Context) {
	ok(c, gin.H{"loaded_at": s.dict.Current().LoadedAt()})
}

type segmentRequest struct {
	Text  string `json:"text"`
	Smart *bool  `json:"smart,omitempty"`
}

type segmentResponse struct {
	Lexemes []segmenter.Lexeme `json:"lexemes"`
	Tokens  []string           `json:"tokens"`
}

func (s *Server) segment(c *gin.Context) {
	var req segmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: %v", err)
		return
	}
	if s.cfg.MaxTextLength > 0 && len([]rune(req.Text)) > s.cfg.MaxTextLength {
		fail(c, http.StatusRequestEntityTooLarge, "text longer than %d characters", s.cfg.MaxTextLength)
		return
	}

	opts := s.opts
	if req.Smart != nil {
		opts.UseSmart = *req.Smart
	}
	lexemes, err := segmenter.Segment(s.dict, req.Text, opts)
	if err != nil {
		s.logger.Error("[server] segment: %v", err)
		fail(c, http.StatusInternalServerError, "segment: %v", err)
		return
	}
	if lexemes == nil {
		lexemes = []segmenter.Lexeme{}
	}
	ok(c, segmentResponse{Lexemes: lexemes, Tokens: segmenter.Texts(lexemes)})
}

type statsResponse struct {
	Stats    dictionary.Stats      `json:"stats"`
	Report   dictionary.LoadReport `json:"report"`
	LoadedAt time.Time             `json:"loaded_at"`
}

func (s *Server) stats(c *gin.Context) {
	d := s.dict.Current()
	ok(c, statsResponse{Stats: d.Stats(), Report: s.dict.Report(), LoadedAt: d.LoadedAt()})
}

type wordsRequest struct {
	Words []string `json:"words" binding:"required"`
}

func (s *Server) addWords(c *gin.Context) {
	var req wordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: %v", err)
		return
	}
	ok(c, gin.H{"applied": s.dict.AddWords(req.Words)})
}

func (s *Server) disableWords(c *gin.Context) {
	var req wordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: %v", err)
		return
	}
	ok(c, gin.H{"applied": s.dict.DisableWords(req.Words)})
}

type feedbackRequest struct {
	// Lines are hand-segmented sentences, words separated by spaces.
	Lines []string `json:"lines" binding:"required"`
}

type feedbackResponse struct {
	Added    []string `json:"added"`
	Disabled []string `json:"disabled"`
}

// feedback teaches the dictionary a segmentation: every word of a line is
// added and dictionary words crossing its boundaries are disabled.
func (s *Server) feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: %v", err)
		return
	}

	var added []string
	for _, line := range req.Lines {
		for _, w := range strings.Fields(line) {
			if len([]rune(w)) > 1 {
				added = append(added, w)
			}
		}
	}
	d := s.dict.Current()
	disabled := wordlist.InterferenceFunc(d.Contains, req.Lines)

	s.dict.DisableWords(disabled)
	s.dict.AddWords(added)
	if added == nil {
		added = []string{}
	}
	ok(c, feedbackResponse{Added: added, Disabled: disabled})
}

func (s *Server) reload(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	if s.cfg.ReloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ReloadTimeout)
		defer cancel()
	}
	if err := s.dict.ForceReload(ctx); err != nil {
		fail(c, http.StatusInternalServerError, "%v", err)
		return
	}
	d := s.dict.Current()
	ok(c, statsResponse{Stats: d.Stats(), Report: s.dict.Report(), LoadedAt: d.LoadedAt()})
}
