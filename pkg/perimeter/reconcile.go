package perimeter

import (
	"fmt"

	"github.com/JMS2088/gablok/pkg/footprint"
	"github.com/JMS2088/gablok/pkg/plan"
	"github.com/JMS2088/gablok/pkg/validation"
)

// RebuildResult summarizes one reconciliation pass.
type RebuildResult struct {
	Purged   int                `json:"purged"`
	Dragged  int                `json:"dragged"`
	Added    int                `json:"added"`
	Welded   int                `json:"welded"`
	Yielded  int                `json:"yielded"`
	Deduped  int                `json:"deduped"`
	Skipped  int                `json:"skipped"`
	Strips   int                `json:"strips"`
	Report   *validation.Report `json:"report"`
	Diagnose []Diagnostic       `json:"diagnostics"`
}

// perimeterEdge is one wall-bearing edge of a live entity, with everything
// needed to build its strip.
type perimeterEdge struct {
	key     string
	source  plan.Source
	edge    footprint.Edge
	outline footprint.Outline
	height  float64
	opens   []plan.ResolvedOpening
}

// livePerimeter is the edge set of every valid room and garage.
type livePerimeter struct {
	edges   []perimeterEdge
	keys    map[string]struct{}
	byOwner map[string]map[string]struct{} // Source.String() -> keys
}

func (lp *livePerimeter) add(pe perimeterEdge) {
	lp.edges = append(lp.edges, pe)
	lp.keys[pe.key] = struct{}{}
	owner := pe.source.String()
	if lp.byOwner[owner] == nil {
		lp.byOwner[owner] = make(map[string]struct{})
	}
	lp.byOwner[owner][pe.key] = struct{}{}
}

// collectPerimeter extracts every room, then every garage. Malformed
// entities are skipped with a warning on report.
func collectPerimeter(s *plan.Scene, report *validation.Report) *livePerimeter {
	lp := &livePerimeter{
		keys:    make(map[string]struct{}),
		byOwner: make(map[string]map[string]struct{}),
	}
	for i, r := range s.Rooms {
		outline, err := footprint.ExtractRoom(r)
		if err != nil {
			skip(report, fmt.Sprintf("rooms[%d]", i), "room", r.ID, err)
			continue
		}
		src := plan.FromRoom(r.ID)
		opens := footprint.ProjectOpenings(r, outline)
		for _, edge := range outline.Edges {
			lp.add(perimeterEdge{
				key:     edge.Key(r.Level),
				source:  src,
				edge:    edge,
				outline: outline,
				height:  r.WallHeight(),
				opens:   opens[edge.Index],
			})
		}
	}
	for i, g := range s.Garages {
		outline, err := footprint.ExtractGarage(g)
		if err != nil {
			skip(report, fmt.Sprintf("garages[%d]", i), "garage", g.ID, err)
			continue
		}
		src := plan.FromGarage(g.ID)
		for _, edge := range outline.Edges {
			lp.add(perimeterEdge{
				key:     edge.Key(g.Level),
				source:  src,
				edge:    edge,
				outline: outline,
				height:  g.WallHeight(),
			})
		}
	}
	return lp
}

func skip(report *validation.Report, path, kind, id string, err error) {
	report.AddWarning(validation.Result{
		Level:       validation.LevelEntity,
		Message:     fmt.Sprintf("skipped %s %q: %v", kind, id, err),
		Path:        path,
		EntityID:    id,
		ActualValue: err.Error(),
	})
}

// isStale reports whether a derived strip must be regenerated: its key was
// live last pass, its owner no longer produces that edge, or its owner is
// gone.
func (lp *livePerimeter) isStale(st plan.WallStrip, prevLive map[string]struct{}) bool {
	key := st.Key()
	if _, ok := prevLive[key]; ok {
		return true
	}
	ownerKeys, ok := lp.byOwner[st.Source.String()]
	if !ok {
		return true
	}
	_, current := ownerKeys[key]
	return !current
}

// RebuildPerimeter runs one reconciliation pass with the given default wall
// thickness:
//
//  1. extract the live edge keys of every room and garage;
//  2. drop derived strips that are stale;
//  3. drop the dragged entity's strips inside its padded motion box;
//  4. insert a strip for every live key not yet covered; a wall shared by
//     two rooms is inserted once and carries both rooms' openings;
//  5. remember the live keys for the next pass.
//
// The result is then welded, derived strips give way to user-drawn strips
// on the same edge, and duplicates are collapsed. Malformed entities are
// skipped and reported; the pass always completes.
func (e *Engine) RebuildPerimeter(thickness float64) RebuildResult {
	e.mu.Lock()
	res, snapshot := e.rebuildLocked(thickness)
	seq := e.stamp()
	e.mu.Unlock()

	for _, w := range res.Report.Warnings {
		e.logger.Printf("skip %s: %s", w.Path, w.Message)
	}
	e.afterChange(seq, "rebuild", snapshot, res.Diagnose)
	return res
}

func (e *Engine) rebuildLocked(thickness float64) (RebuildResult, []plan.WallStrip) {
	work := e.scene.Clone()
	report := validation.NewReport()
	before := len(work.Strips)
	t := e.cfg.Thickness(thickness)

	live := collectPerimeter(work, report)

	strips := make([]plan.WallStrip, 0, len(work.Strips)+len(live.edges))
	purged := 0
	for _, st := range work.Strips {
		if st.Source.IsDerived() && live.isStale(st, e.prevLive) {
			purged++
			continue
		}
		strips = append(strips, st)
	}

	strips, dragged := dragPurge(strips, work.Drag, e.cfg.DragPadding)
	afterPurge := len(strips)

	// present maps each covered key to the strip inserted for it in this
	// pass, or -1 when an existing strip covers it.
	present := make(map[string]int, len(strips))
	for _, st := range strips {
		present[st.Key()] = -1
	}
	added := 0
	for _, pe := range live.edges {
		if at, ok := present[pe.key]; ok {
			if at >= 0 && len(pe.opens) > 0 {
				strips[at].Openings = append(strips[at].Openings, pe.opens...)
			}
			continue
		}
		present[pe.key] = len(strips)
		strips = append(strips, e.newDerivedStrip(pe, t))
		added++
	}

	e.prevLive = live.keys

	strips, moved := weld(strips, e.cfg.WeldTolerance)
	strips, yielded := yieldToUser(strips)
	strips, deduped := dedupeMerging(strips)

	work.Strips = strips
	e.scene.Strips = work.Strips
	e.report = report

	res := RebuildResult{
		Purged:  purged,
		Dragged: dragged,
		Added:   added,
		Welded:  moved,
		Yielded: yielded,
		Deduped: deduped,
		Skipped: len(report.Warnings),
		Strips:  len(strips),
		Report:  report,
		Diagnose: []Diagnostic{
			{Kind: DiagPurge, Removed: purged + dragged, Before: before, After: afterPurge},
			{Kind: DiagRebuild, Added: added, Removed: yielded + deduped, Before: afterPurge, After: len(strips)},
			{Kind: DiagWeld, Moved: moved, Before: len(strips), After: len(strips)},
		},
	}
	return res, plan.CloneStrips(strips)
}

func (e *Engine) newDerivedStrip(pe perimeterEdge, thickness float64) plan.WallStrip {
	level := pe.outline.Level
	var opens []plan.ResolvedOpening
	if len(pe.opens) > 0 {
		opens = append(opens, pe.opens...)
	}
	return plan.WallStrip{
		ID:            plan.DerivedStripID(pe.source, pe.key),
		X0:            pe.edge.A.X,
		Z0:            pe.edge.A.Z,
		X1:            pe.edge.B.X,
		Z1:            pe.edge.B.Z,
		Thickness:     thickness,
		Height:        pe.height,
		BaseY:         e.cfg.BaseY(level),
		Level:         level,
		Openings:      opens,
		Source:        pe.source,
		OuterFaceLeft: pe.outline.OuterFaceLeft(pe.edge),
		InteriorLeft:  pe.outline.InteriorLeft(),
	}
}

// RemoveStalePerimeterStrips drops every derived strip whose key is live now
// or was live in the last pass, then dedupes. It is the purge half of a
// rebuild, for callers that regenerate separately. It returns the number of
// strips removed.
func (e *Engine) RemoveStalePerimeterStrips() int {
	e.mu.Lock()
	before := len(e.scene.Strips)
	live := collectPerimeter(e.scene, validation.NewReport())
	kept := make([]plan.WallStrip, 0, before)
	for _, st := range e.scene.Strips {
		if st.Source.IsDerived() {
			key := st.Key()
			_, now := live.keys[key]
			_, prev := e.prevLive[key]
			if now || prev {
				continue
			}
		}
		kept = append(kept, st)
	}
	kept, _ = dedupe(kept)
	removed := before - len(kept)
	if removed == 0 {
		e.mu.Unlock()
		return 0
	}
	e.scene.Strips = kept
	snapshot := plan.CloneStrips(kept)
	seq := e.stamp()
	e.mu.Unlock()

	e.afterChange(seq, "remove-stale", snapshot, []Diagnostic{{
		Kind: DiagPurge, Removed: removed, Before: before, After: len(snapshot),
	}})
	return removed
}
