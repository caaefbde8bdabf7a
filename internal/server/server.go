package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JMS2088/gablok/internal/store"
	"github.com/JMS2088/gablok/pkg/export"
	"github.com/JMS2088/gablok/pkg/geo"
	"github.com/JMS2088/gablok/pkg/perimeter"
	"github.com/JMS2088/gablok/pkg/plan"
	"github.com/JMS2088/gablok/pkg/scene"
	"github.com/JMS2088/gablok/pkg/validation"
)

// Server exposes a wall engine to the editor over HTTP and websockets.
type Server struct {
	engine  *perimeter.Engine
	hub     *Hub
	history History
	logger  *log.Logger
	router  chi.Router
}

// History lists the persisted snapshots of the wall collection.
type History interface {
	Snapshots(ctx context.Context) ([]store.Snapshot, error)
}

// Option configures a Server.
type Option func(*Server)

// WithHistory serves the snapshot list at /api/snapshots.
func WithHistory(h History) Option {
	return func(s *Server) { s.history = h }
}

// New creates a server for the engine. hub receives render and change
// messages; wire hub.Render into the engine's hooks to push redraws.
func New(engine *perimeter.Engine, hub *Hub, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{engine: engine, hub: hub, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.logger, NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/ws", s.handleWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))

		r.Get("/scene", s.handleScene)
		r.Get("/plan", s.handlePlan)
		r.Get("/validation", s.handleValidation)
		r.Get("/consistency/{level}", s.handleConsistency)
		r.Get("/export", s.handleExport)
		r.Get("/snapshots", s.handleSnapshots)

		r.Put("/rooms", s.handleSetRooms)
		r.Put("/rooms/{id}", s.handleUpsertRoom)
		r.Delete("/rooms/{id}", s.handleRemoveRoom)
		r.Put("/garages", s.handleSetGarages)
		r.Put("/garages/{id}", s.handleUpsertGarage)
		r.Delete("/garages/{id}", s.handleRemoveGarage)

		r.Get("/strips", s.handleStrips)
		r.Post("/strips", s.handleAddStrip)
		r.Delete("/strips/{id}", s.handleDeleteStrip)

		r.Post("/rebuild", s.handleRebuild)
		r.Post("/purge", s.handlePurge)
		r.Post("/dedupe", s.handleDedupe)
		r.Post("/remove-stale", s.handleRemoveStale)
		r.Post("/drag", s.handleDrag)
		r.Delete("/drag", s.handleEndDrag)
	})
	return r
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
// Engine events are relayed to websocket clients while it runs.
func (s *Server) Start(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	events, unsubscribe := s.engine.Subscribe()
	defer unsubscribe()
	go s.hub.Forward(ctx, events)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Printf("gablok server starting on http://localhost%s", addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Printf("gablok server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>gablok</title></head>
<body style="margin:0;background:#111;color:#fff;font-family:system-ui;display:flex;align-items:center;justify-content:center;height:100vh">
<div style="text-align:center">
<h1>gablok</h1>
<p>Wall engine API at <code>/api</code>, redraw stream at <code>/ws</code>.</p>
</div>
</body></html>`)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	// The stream outlives the server's read and write timeouts.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	s.hub.Add(conn)
	defer s.hub.Remove(conn)

	hello, _ := json.Marshal(Message{Type: "hello"})
	if err := conn.Write(r.Context(), websocket.MessageText, hello); err != nil {
		return
	}

	// Clients only listen; reading keeps control frames flowing.
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			return
		}
	}
}

func (s *Server) handleScene(w http.ResponseWriter, _ *http.Request) {
	g := scene.Assemble(s.engine.Scene(), s.engine.Config().StoreyHeight)
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handlePlan(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Scene())
}

type validationResponse struct {
	Input  *validation.Report `json:"input"`
	Strips *validation.Report `json:"strips"`
	Valid  bool               `json:"valid"`
}

func (s *Server) handleValidation(w http.ResponseWriter, _ *http.Request) {
	in := validation.ValidateScene(s.engine.Scene())
	st := s.engine.Validate()
	writeJSON(w, http.StatusOK, validationResponse{Input: in, Strips: st, Valid: in.Valid && st.Valid})
}

func (s *Server) handleConsistency(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid level: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Consistency(level))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var opts export.Options
	if v := r.URL.Query().Get("level"); v != "" {
		level, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid level: %w", err))
			return
		}
		opts.Levels = []int{level}
	}
	opts.Openings, _ = strconv.ParseBool(r.URL.Query().Get("openings"))

	w.Header().Set("Content-Type", "application/geo+json")
	if err := export.Write(w, export.Strips(s.engine.Strips(), opts)); err != nil {
		s.logger.Printf("export: %v", err)
	}
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, errors.New("snapshot history is not enabled"))
		return
	}
	snaps, err := s.history.Snapshots(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if snaps == nil {
		snaps = []store.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleSetRooms(w http.ResponseWriter, r *http.Request) {
	var rooms []plan.Room
	if !decode(w, r, &rooms) {
		return
	}
	sc := &plan.Scene{Rooms: rooms}
	if err := plan.Normalize(sc); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.engine.SetRooms(sc.Rooms)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpsertRoom(w http.ResponseWriter, r *http.Request) {
	var room plan.Room
	if !decode(w, r, &room) {
		return
	}
	room.ID = chi.URLParam(r, "id")
	sc := &plan.Scene{Rooms: []plan.Room{room}}
	if err := plan.Normalize(sc); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.engine.UpsertRoom(sc.Rooms[0])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.engine.RemoveRoom(id) {
		writeError(w, http.StatusNotFound, fmt.Errorf("room %q not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetGarages(w http.ResponseWriter, r *http.Request) {
	var garages []plan.Garage
	if !decode(w, r, &garages) {
		return
	}
	s.engine.SetGarages(garages)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpsertGarage(w http.ResponseWriter, r *http.Request) {
	var g plan.Garage
	if !decode(w, r, &g) {
		return
	}
	g.ID = chi.URLParam(r, "id")
	s.engine.UpsertGarage(g)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveGarage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.engine.RemoveGarage(id) {
		writeError(w, http.StatusNotFound, fmt.Errorf("garage %q not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStrips(w http.ResponseWriter, r *http.Request) {
	strips := s.engine.Strips()
	v := r.URL.Query().Get("level")
	if v == "" {
		writeJSON(w, http.StatusOK, strips)
		return
	}
	level, err := strconv.Atoi(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid level: %w", err))
		return
	}
	out := []plan.WallStrip{}
	for _, st := range strips {
		if st.Level == level {
			out = append(out, st)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddStrip(w http.ResponseWriter, r *http.Request) {
	var st plan.WallStrip
	if !decode(w, r, &st) {
		return
	}
	added, err := s.engine.AddUserStrip(st)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleDeleteStrip(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteUserStrip(chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rebuildRequest struct {
	Thickness float64 `json:"thickness"`
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	var req rebuildRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.RebuildPerimeter(req.Thickness))
}

// box is an axis-aligned XZ rectangle as sent by the editor.
type box struct {
	MinX float64 `json:"min_x"`
	MinZ float64 `json:"min_z"`
	MaxX float64 `json:"max_x"`
	MaxZ float64 `json:"max_z"`
}

func (b box) bounds() geo.Bounds {
	return geo.NewBounds(b.MinX, b.MinZ, b.MaxX, b.MaxZ)
}

type purgeRequest struct {
	Level int `json:"level"`
	Box   box `json:"box"`
}

type countResponse struct {
	Removed int `json:"removed"`
	Strips  int `json:"strips"`
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	var req purgeRequest
	if !decode(w, r, &req) {
		return
	}
	n := s.engine.PurgeBox(req.Level, req.Box.bounds())
	writeJSON(w, http.StatusOK, countResponse{Removed: n, Strips: len(s.engine.Strips())})
}

func (s *Server) handleDedupe(w http.ResponseWriter, _ *http.Request) {
	n := s.engine.Dedupe()
	writeJSON(w, http.StatusOK, countResponse{Removed: n, Strips: len(s.engine.Strips())})
}

func (s *Server) handleRemoveStale(w http.ResponseWriter, _ *http.Request) {
	n := s.engine.RemoveStalePerimeterStrips()
	writeJSON(w, http.StatusOK, countResponse{Removed: n, Strips: len(s.engine.Strips())})
}

type dragRequest struct {
	EntityID  string  `json:"entity_id"`
	Level     int     `json:"level"`
	Previous  box     `json:"previous"`
	Current   box     `json:"current"`
	Thickness float64 `json:"thickness"`
}

// handleDrag installs the drag frame and rebuilds against it.
func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	var req dragRequest
	if !decode(w, r, &req) {
		return
	}
	if req.EntityID == "" {
		writeError(w, http.StatusBadRequest, errors.New("entity_id is required"))
		return
	}
	s.engine.SetDrag(&plan.DragContext{
		EntityID: req.EntityID,
		Level:    req.Level,
		Previous: req.Previous.bounds(),
		Current:  req.Current.bounds(),
	})
	writeJSON(w, http.StatusOK, s.engine.RebuildPerimeter(req.Thickness))
}

func (s *Server) handleEndDrag(w http.ResponseWriter, _ *http.Request) {
	s.engine.SetDrag(nil)
	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, perimeter.ErrStripNotFound):
		return http.StatusNotFound
	case errors.Is(err, perimeter.ErrNotUserDrawn), errors.Is(err, perimeter.ErrDuplicateStrip):
		return http.StatusConflict
	case errors.Is(err, perimeter.ErrInvalidStrip):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

// decodeOptional accepts an empty body.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
