// Package perimeter keeps the wall strip collection of a scene in step with
// its rooms and garages. The Engine is the single writer of the collection:
// every operation computes on a copy of the scene and swaps the result in
// under one lock, so readers never see a half-updated set of strips.
package perimeter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/JMS2088/gablok/pkg/geo"
	"github.com/JMS2088/gablok/pkg/plan"
	"github.com/JMS2088/gablok/pkg/validation"
)

// Errors returned by user strip operations.
var (
	ErrStripNotFound  = errors.New("wall strip not found")
	ErrNotUserDrawn   = errors.New("wall strip is not user-drawn")
	ErrInvalidStrip   = errors.New("invalid wall strip")
	ErrDuplicateStrip = errors.New("a user-drawn strip already covers this edge")
)

// Config holds the engine's geometric constants.
type Config struct {
	DefaultThickness float64 `yaml:"default_thickness" json:"default_thickness"`
	MinThickness     float64 `yaml:"min_thickness" json:"min_thickness"`
	StoreyHeight     float64 `yaml:"storey_height" json:"storey_height"`
	DragPadding      float64 `yaml:"drag_padding" json:"drag_padding"`
	WeldTolerance    float64 `yaml:"weld_tolerance" json:"weld_tolerance"`
}

// DefaultConfig returns the standard engine constants.
func DefaultConfig() Config {
	return Config{
		DefaultThickness: 0.3,
		MinThickness:     0.01,
		StoreyHeight:     3.5,
		DragPadding:      0.8,
		WeldTolerance:    0.005,
	}
}

// Thickness resolves a caller-supplied wall thickness. Zero, NaN and +Inf
// fall back to DefaultThickness. Anything thinner than MinThickness,
// negative values included, is raised to MinThickness.
func (c Config) Thickness(t float64) float64 {
	if t == 0 || math.IsNaN(t) || math.IsInf(t, 1) {
		t = c.DefaultThickness
	}
	return math.Max(c.MinThickness, t)
}

// BaseY returns the floor elevation of a level.
func (c Config) BaseY(level int) float64 {
	return float64(level) * c.StoreyHeight
}

// Hooks are the collaborators notified after an operation has been applied.
// Any of them may be nil. They run outside the engine lock; errors and
// panics are logged and never reach the caller. Persist calls never
// overlap, and a snapshot older than one already persisted is skipped.
type Hooks struct {
	Persist     func(ctx context.Context, strips []plan.WallStrip) error
	Render      func() error
	Diagnostics func(Diagnostic)
}

// DiagnosticKind names the stage a Diagnostic reports on.
type DiagnosticKind string

const (
	DiagPurge    DiagnosticKind = "perimeter-purge"
	DiagRebuild  DiagnosticKind = "perimeter-rebuild"
	DiagWeld     DiagnosticKind = "perimeter-weld"
	DiagBoxPurge DiagnosticKind = "box-purge"
	DiagDedupe   DiagnosticKind = "dedupe"
)

// Diagnostic is the observability record for one stage of an operation.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Removed int            `json:"removed"`
	Added   int            `json:"added"`
	Moved   int            `json:"moved,omitempty"`
	Before  int            `json:"before"`
	After   int            `json:"after"`
}

// Event is published to subscribers after the strip collection changed.
type Event struct {
	Seq         uint64       `json:"seq"`
	Op          string       `json:"op"`
	Strips      int          `json:"strips"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig overrides the geometric constants.
func WithConfig(c Config) Option {
	return func(e *Engine) { e.cfg = c }
}

// WithHooks installs the persistence, render and diagnostics collaborators.
func WithHooks(h Hooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine owns a scene and maintains its wall strips.
type Engine struct {
	cfg    Config
	hooks  Hooks
	logger *log.Logger

	mu       sync.Mutex
	scene    *plan.Scene
	prevLive map[string]struct{}
	report   *validation.Report
	seq      uint64 // bumped on every swap, under mu

	persistMu sync.Mutex
	persisted uint64

	subMu sync.Mutex
	subs  map[chan Event]struct{}
}

// New creates an engine for the given scene. The scene is copied; later
// changes go through the engine. Derived strips already in the scene are
// treated as the previous pass's output, so the first rebuild regenerates
// them like any other.
func New(s *plan.Scene, opts ...Option) *Engine {
	e := &Engine{
		cfg:    DefaultConfig(),
		logger: log.Default(),
		report: validation.NewReport(),
		subs:   make(map[chan Event]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.setScene(s)
	return e
}

func (e *Engine) setScene(s *plan.Scene) {
	if s == nil {
		s = &plan.Scene{}
	}
	e.scene = s.Clone()
	e.prevLive = make(map[string]struct{})
	for _, st := range e.scene.Strips {
		if st.Source.IsDerived() {
			e.prevLive[st.Key()] = struct{}{}
		}
	}
}

// Config returns the engine's constants.
func (e *Engine) Config() Config { return e.cfg }

// Scene returns a deep copy of the current scene.
func (e *Engine) Scene() *plan.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene.Clone()
}

// Strips returns a deep copy of the wall strip collection.
func (e *Engine) Strips() []plan.WallStrip {
	e.mu.Lock()
	defer e.mu.Unlock()
	return plan.CloneStrips(e.scene.Strips)
}

// Report returns the findings of the last rebuild.
func (e *Engine) Report() *validation.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := validation.NewReport()
	r.Merge(e.report)
	return r
}

// SetScene replaces the whole scene, for example after loading a project.
func (e *Engine) SetScene(s *plan.Scene) {
	e.mu.Lock()
	e.setScene(s)
	n := len(e.scene.Strips)
	seq := e.stamp()
	e.mu.Unlock()
	e.publish(Event{Seq: seq, Op: "load", Strips: n})
}

// SetRooms replaces the room list. Strips are not touched until the next
// rebuild.
func (e *Engine) SetRooms(rooms []plan.Room) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene.Rooms = make([]plan.Room, len(rooms))
	for i, r := range rooms {
		e.scene.Rooms[i] = r.Clone()
	}
}

// SetGarages replaces the garage list.
func (e *Engine) SetGarages(garages []plan.Garage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene.Garages = append([]plan.Garage(nil), garages...)
}

// UpsertRoom replaces the room with the same ID or appends it.
func (e *Engine) UpsertRoom(r plan.Room) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cur := e.scene.RoomByID(r.ID); cur != nil {
		*cur = r.Clone()
		return
	}
	e.scene.Rooms = append(e.scene.Rooms, r.Clone())
}

// RemoveRoom deletes a room by ID and reports whether it existed.
func (e *Engine) RemoveRoom(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.scene.Rooms {
		if e.scene.Rooms[i].ID == id {
			e.scene.Rooms = append(e.scene.Rooms[:i], e.scene.Rooms[i+1:]...)
			return true
		}
	}
	return false
}

// UpsertGarage replaces the garage with the same ID or appends it.
func (e *Engine) UpsertGarage(g plan.Garage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cur := e.scene.GarageByID(g.ID); cur != nil {
		*cur = g
		return
	}
	e.scene.Garages = append(e.scene.Garages, g)
}

// RemoveGarage deletes a garage by ID and reports whether it existed.
func (e *Engine) RemoveGarage(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.scene.Garages {
		if e.scene.Garages[i].ID == id {
			e.scene.Garages = append(e.scene.Garages[:i], e.scene.Garages[i+1:]...)
			return true
		}
	}
	return false
}

// SetDrag installs the drag in progress; nil ends it.
func (e *Engine) SetDrag(d *plan.DragContext) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d == nil {
		e.scene.Drag = nil
		return
	}
	c := *d
	e.scene.Drag = &c
}

// AddUserStrip inserts a user-drawn strip. The strip is tagged user-drawn
// and given a handle if it has none. A derived strip on the same edge is
// replaced; another user-drawn strip on the same edge is an error.
func (e *Engine) AddUserStrip(s plan.WallStrip) (plan.WallStrip, error) {
	s = s.Clone()
	s.Source = plan.FromUser()
	if !s.A().IsFinite() || !s.B().IsFinite() || s.Length() == 0 {
		return plan.WallStrip{}, fmt.Errorf("%w: endpoints must be finite and distinct", ErrInvalidStrip)
	}
	if s.ID == "" {
		s.ID = plan.NewStripID()
	}
	s.Thickness = e.cfg.Thickness(s.Thickness)
	if !(s.Height > 0) {
		s.Height = plan.DefaultRoomHeight
	}
	if s.BaseY == 0 {
		s.BaseY = e.cfg.BaseY(s.Level)
	}

	e.mu.Lock()
	key := s.Key()
	kept := make([]plan.WallStrip, 0, len(e.scene.Strips)+1)
	removed := 0
	for _, st := range e.scene.Strips {
		if st.ID == s.ID {
			e.mu.Unlock()
			return plan.WallStrip{}, fmt.Errorf("%w: id %q already in use", ErrInvalidStrip, s.ID)
		}
		if st.Key() != key {
			kept = append(kept, st)
			continue
		}
		if !st.Source.IsDerived() {
			e.mu.Unlock()
			return plan.WallStrip{}, fmt.Errorf("%w: %s", ErrDuplicateStrip, key)
		}
		removed++
	}
	before := len(e.scene.Strips)
	e.scene.Strips = append(kept, s)
	snapshot := plan.CloneStrips(e.scene.Strips)
	seq := e.stamp()
	e.mu.Unlock()

	e.afterChange(seq, "add-strip", snapshot, []Diagnostic{{
		Kind: DiagRebuild, Added: 1, Removed: removed, Before: before, After: len(snapshot),
	}})
	return s.Clone(), nil
}

// DeleteUserStrip removes a user-drawn strip by handle. Derived strips
// cannot be deleted this way; they belong to their room or garage.
func (e *Engine) DeleteUserStrip(id string) error {
	e.mu.Lock()
	idx := -1
	for i, st := range e.scene.Strips {
		if st.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrStripNotFound, id)
	}
	if e.scene.Strips[idx].Source.IsDerived() {
		e.mu.Unlock()
		return fmt.Errorf("%w: %q belongs to %s", ErrNotUserDrawn, id, e.scene.Strips[idx].Source)
	}
	before := len(e.scene.Strips)
	next := make([]plan.WallStrip, 0, before-1)
	next = append(next, e.scene.Strips[:idx]...)
	next = append(next, e.scene.Strips[idx+1:]...)
	e.scene.Strips = next
	snapshot := plan.CloneStrips(next)
	seq := e.stamp()
	e.mu.Unlock()

	e.afterChange(seq, "delete-strip", snapshot, []Diagnostic{{
		Kind: DiagPurge, Removed: 1, Before: before, After: len(snapshot),
	}})
	return nil
}

// Dedupe collapses strips sharing an edge key. It returns the number of
// strips removed.
func (e *Engine) Dedupe() int {
	e.mu.Lock()
	before := len(e.scene.Strips)
	next, removed := dedupe(e.scene.Strips)
	if removed == 0 {
		e.mu.Unlock()
		return 0
	}
	e.scene.Strips = next
	snapshot := plan.CloneStrips(next)
	seq := e.stamp()
	e.mu.Unlock()

	e.afterChange(seq, "dedupe", snapshot, []Diagnostic{{
		Kind: DiagDedupe, Removed: removed, Before: before, After: len(snapshot),
	}})
	return removed
}

// PurgeBox removes every strip on level whose centreline touches b,
// whatever its source, then dedupes. It returns the number of strips
// removed; nothing is persisted or redrawn when that is zero.
func (e *Engine) PurgeBox(level int, b geo.Bounds) int {
	e.mu.Lock()
	before := len(e.scene.Strips)
	kept, removed := purgeBox(e.scene.Strips, level, b)
	if removed == 0 {
		e.mu.Unlock()
		return 0
	}
	kept, _ = dedupe(kept)
	e.scene.Strips = kept
	snapshot := plan.CloneStrips(kept)
	seq := e.stamp()
	e.mu.Unlock()

	e.afterChange(seq, "purge-box", snapshot, []Diagnostic{{
		Kind: DiagBoxPurge, Removed: before - len(snapshot), Before: before, After: len(snapshot),
	}})
	return removed
}

// Subscribe returns a channel of change events and a function that cancels
// the subscription. Events are dropped for subscribers that fall behind.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	e.subMu.Lock()
	e.subs[ch] = struct{}{}
	e.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subMu.Lock()
			delete(e.subs, ch)
			e.subMu.Unlock()
			close(ch)
		})
	}
}

// stamp numbers a swap of the strip collection. Callers hold e.mu.
func (e *Engine) stamp() uint64 {
	e.seq++
	return e.seq
}

func (e *Engine) publish(ev Event) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// afterChange notifies subscribers and hooks once a new collection has been
// swapped in. seq orders concurrent changes: a snapshot that lost the race
// to the persist hook against a newer one is not written.
func (e *Engine) afterChange(seq uint64, op string, snapshot []plan.WallStrip, diags []Diagnostic) {
	for _, d := range diags {
		e.runHook("diagnostics", func() error {
			if e.hooks.Diagnostics != nil {
				e.hooks.Diagnostics(d)
			}
			return nil
		})
	}
	e.publish(Event{Seq: seq, Op: op, Strips: len(snapshot), Diagnostics: diags})
	if e.hooks.Persist != nil {
		e.persist(seq, snapshot)
	}
	if e.hooks.Render != nil {
		e.runHook("render", e.hooks.Render)
	}
}

func (e *Engine) persist(seq uint64, snapshot []plan.WallStrip) {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()
	if seq <= e.persisted {
		e.logger.Printf("persist: skipping snapshot %d, %d already written", seq, e.persisted)
		return
	}
	e.persisted = seq
	e.runHook("persist", func() error {
		return e.hooks.Persist(context.Background(), snapshot)
	})
}

func (e *Engine) runHook(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("hook %s panicked: %v", name, r)
		}
	}()
	if err := fn(); err != nil {
		e.logger.Printf("hook %s failed: %v", name, err)
	}
}
