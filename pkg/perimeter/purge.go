package perimeter

import (
	"github.com/JMS2088/gablok/pkg/geo"
	"github.com/JMS2088/gablok/pkg/plan"
)

// purgeBox drops every strip on level whose centreline touches b.
func purgeBox(strips []plan.WallStrip, level int, b geo.Bounds) ([]plan.WallStrip, int) {
	out := make([]plan.WallStrip, 0, len(strips))
	for _, s := range strips {
		if s.Level == level && b.IntersectsSegment(s.Segment()) {
			continue
		}
		out = append(out, s)
	}
	return out, len(strips) - len(out)
}

// dragPurge drops the dragged entity's own strips that touch the union of
// its previous and current bounds, grown by pad. Other strips stay, even
// inside the box.
func dragPurge(strips []plan.WallStrip, d *plan.DragContext, pad float64) ([]plan.WallStrip, int) {
	if d == nil {
		return strips, 0
	}
	box := d.Previous.Union(d.Current).Pad(pad)
	out := make([]plan.WallStrip, 0, len(strips))
	for _, s := range strips {
		if s.Level == d.Level && s.Source.References(d.EntityID) && box.IntersectsSegment(s.Segment()) {
			continue
		}
		out = append(out, s)
	}
	return out, len(strips) - len(out)
}
