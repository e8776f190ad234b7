// Package server hosts the playground page and its run and share API.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/caffeineduck/cwsplay/bridge"
	"github.com/caffeineduck/cwsplay/engine"
	"github.com/caffeineduck/cwsplay/playground"
	"github.com/caffeineduck/cwsplay/sharelink"
	"github.com/caffeineduck/cwsplay/transcript"
)

//go:embed static
var staticFS embed.FS

// maxSourceBytes bounds a request body.
const maxSourceBytes = 1 << 20

// Server serves one engine to any number of browser sessions. Every request
// or websocket gets its own transcript, so sessions never see each other's
// output.
type Server struct {
	eng     engine.Engine
	codec   sharelink.Codec
	timeout time.Duration
	baseURL string
	log     logrus.FieldLogger
	metrics *metrics
	page    *template.Template
	router  *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithTimeout bounds each run.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithBaseURL sets the address share links are built on when the page does
// not say where it was loaded from.
func WithBaseURL(u string) Option {
	return func(s *Server) {
		s.baseURL = u
	}
}

// WithCodec replaces the default share-link codec.
func WithCodec(c sharelink.Codec) Option {
	return func(s *Server) {
		s.codec = c
	}
}

// New returns a Server for eng.
func New(eng engine.Engine, opts ...Option) (*Server, error) {
	s := &Server{
		eng:     eng,
		codec:   sharelink.New(),
		timeout: 30 * time.Second,
		baseURL: "http://localhost:8080/",
		log:     logrus.StandardLogger(),
		metrics: newMetrics(eng.Name()),
	}
	for _, opt := range opts {
		opt(s)
	}

	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		return nil, fmt.Errorf("read embedded page: %w", err)
	}
	s.page, err = template.New("index").Parse(string(page))
	if err != nil {
		return nil, fmt.Errorf("parse embedded page: %w", err)
	}

	assets, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to get static subFS: %w", err)
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/api/run", s.handleRun).Methods(http.MethodPost)
	r.HandleFunc("/api/run/ws", s.handleRunSocket).Methods(http.MethodGet)
	r.HandleFunc("/api/share", s.handleShare).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(assets))))
	s.router = r

	return s, nil
}

// Handler returns the HTTP handler with request logging and panic recovery.
func (s *Server) Handler() http.Handler {
	accessLog := s.log.WithField("component", "http").WriterLevel(logrus.DebugLevel)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(s.log),
		handlers.PrintRecoveryStack(true),
	)(handlers.CombinedLoggingHandler(accessLog, s.router))
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.WithFields(logrus.Fields{"addr": addr, "engine": s.eng.Name()}).Info("playground serving")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to listen and serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("playground stopped")
	return nil
}

// controller builds a session over a fresh transcript.
func (s *Server) controller(source, location string, opts ...playground.Option) (*playground.Controller, *playground.Text) {
	editor := playground.NewText(source)
	br := bridge.New(s.eng, transcript.New(),
		bridge.WithTimeout(s.timeout),
		bridge.WithLogger(s.log),
	)
	if location == "" {
		location = s.baseURL
	}
	opts = append([]playground.Option{
		playground.WithCodec(s.codec),
		playground.WithLocation(location),
		playground.WithLogger(s.log),
	}, opts...)
	return playground.New(editor, br, opts...), editor
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctl, editor := s.controller("", "")
	ctl.Initialize(r.URL.RequestURI())

	// Convert strings to JSON for safe template injection
	sourceJSON, _ := json.Marshal(editor.Value())

	err := s.page.Execute(w, struct {
		Engine        string
		InitialSource template.JS
	}{
		Engine:        s.eng.Name(),
		InitialSource: template.JS(sourceJSON),
	})
	if err != nil {
		s.log.WithError(err).Warn("render page")
	}
}

type runRequest struct {
	Source string `json:"source"`
}

type lineJSON struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type runResponse struct {
	Executed   bool       `json:"executed"`
	Failed     bool       `json:"failed"`
	DurationMS int64      `json:"duration_ms"`
	Lines      []lineJSON `json:"lines"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctl, _ := s.controller(req.Source, "")
	sink := ctl.Transcript()
	stats := ctl.Run(r.Context())
	s.metrics.observeRun(stats)

	resp := runResponse{
		Executed:   stats.Executed,
		Failed:     stats.Failed,
		DurationMS: stats.Duration.Milliseconds(),
		Lines:      []lineJSON{},
	}
	for _, e := range sink.Entries() {
		resp.Lines = append(resp.Lines, lineJSON{Channel: e.Channel.String(), Text: e.Text})
	}
	writeJSON(w, http.StatusOK, resp)
}

type shareRequest struct {
	Source   string `json:"source"`
	Location string `json:"location"`
}

type shareResponse struct {
	Link string `json:"link"`
}

// handleShare builds the link. The page writes it to the clipboard and shows
// the notification itself.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	pageOwned := playground.ClipboardFunc(func(context.Context, string) error { return nil })
	ctl, _ := s.controller(req.Source, req.Location, playground.WithClipboard(pageOwned))

	link, err := ctl.Share(r.Context())
	if err != nil {
		if errors.Is(err, playground.ErrEmptySource) {
			s.metrics.shares.WithLabelValues("empty").Inc()
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		s.metrics.shares.WithLabelValues("failed").Inc()
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.metrics.shares.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, shareResponse{Link: link})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"engine": s.eng.Name(),
	})
}

func decodeJSON(body io.Reader, v any) error {
	dec := json.NewDecoder(io.LimitReader(body, maxSourceBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// OpenBrowser opens url in the desktop browser, if there is one.
func OpenBrowser(url string) {
	switch runtime.GOOS {
	case "linux":
		_ = exec.Command("xdg-open", url).Start()
	case "windows":
		_ = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		_ = exec.Command("open", url).Start()
	}
}

// PageURL is the address the playground is reachable at when listening on
// addr.
func PageURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}
