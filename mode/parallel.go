package mode

import (
	"fmt"
	"math"

	"github.com/osuushi/wayedit/command"
	"github.com/osuushi/wayedit/dbg"
	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/osm"
	"github.com/osuushi/wayedit/parallel"
	"github.com/pkg/errors"
)

const msgNotBranchless = "The ways selected must form a simple branchless path"

// Parallel makes offset copies of the selected ways. Clicking picks the
// source ways; dragging from one of them creates the copies and moves them
// with the mouse. Offsets snap to whole steps of real distance unless Alt
// is held (or snapping is off, in which case Alt turns it on).
type Parallel struct {
	base
	pressed  bool
	dragging bool
	gate     dragGate

	ways    *parallel.Ways
	gesture *command.Gesture
	ref     osm.WaySegment

	helperStart, helperEnd geom.EastNorth
	realDistance           float64
	hover                  *osm.Way
}

func NewParallel() *Parallel {
	return &Parallel{}
}

func (p *Parallel) Name() string {
	return "parallel"
}

func (p *Parallel) Exit(ctx *Context) {
	p.finish()
	p.hover = nil
}

func (p *Parallel) finish() {
	if p.gesture != nil {
		p.gesture.Finish()
	}
	p.pressed = false
	p.dragging = false
	p.ways = nil
	p.gesture = nil
}

// Offset of the copies from the source ways, in projected units. Positive is
// to the left of the reference way.
func (p *Parallel) Offset() float64 {
	if p.ways == nil {
		return 0
	}
	return p.ways.Offset()
}

func (p *Parallel) Pointer(ctx *Context, e PointerEvent) {
	switch e.Action {
	case Move:
		p.hover = ctx.View().NearestWay(ctx.DataSet(), e.Point, nil)
	case Press:
		if e.Button != LeftButton {
			return
		}
		p.finish()
		p.pressed = true
		p.gate = newDragGate(e, 0, ctx.Prefs().Select.InitialMoveThreshold)
	case Drag:
		if !p.pressed || !p.gate.Pass(e) {
			return
		}
		if !p.dragging {
			if !p.initParallelWays(ctx, p.gate.start) {
				p.pressed = false
				return
			}
			p.dragging = true
		}
		p.updateOffset(ctx, e)
	case Release:
		if !p.pressed {
			return
		}
		if !p.dragging {
			p.selectWay(ctx, e)
		}
		p.finish()
	}
}

// Click selection: plain click selects the way, Shift adds it, Ctrl toggles.
func (p *Parallel) selectWay(ctx *Context, e PointerEvent) {
	ds := ctx.DataSet()
	w := ctx.View().NearestWay(ds, e.Point, nil)
	if w == nil {
		if !e.Modifiers.Shift && !e.Modifiers.Ctrl {
			ds.ClearSelection()
		}
		return
	}
	switch {
	case e.Modifiers.Ctrl:
		ds.ToggleSelected(w)
	case e.Modifiers.Shift:
		ds.AddSelected(w)
	default:
		ds.SetSelected(w)
	}
}

// Build the copies from the selected ways, or from the way under the cursor
// if it is not part of the selection, and add them to the data set.
func (p *Parallel) initParallelWays(ctx *Context, at geom.Point) bool {
	ds := ctx.DataSet()
	ref, ok := ctx.View().NearestWaySegment(ds, at, nil)
	if !ok {
		return false
	}
	p.ref = ref

	var sources []*osm.Way
	for _, w := range ds.SelectedWays() {
		if w.NodesCount() > 0 {
			sources = append(sources, w)
		}
	}
	refIndex := indexOfWay(sources, ref.Way)
	if refIndex < 0 {
		sources = []*osm.Way{ref.Way}
		refIndex = 0
		ds.SetSelected(ref.Way)
	}

	ways, err := parallel.New(ds, sources, refIndex)
	if err != nil {
		dbg.Warnf("parallel: %v", err)
		ctx.Prompter().Warn(msgNotBranchless)
		ds.ClearSelection()
		return false
	}
	p.gesture = ctx.Begin(ways.Commit())
	if p.gesture == nil {
		return false
	}
	p.ways = ways
	ds.SetSelected(primitives(ways.Ways())...)
	return true
}

func (p *Parallel) updateOffset(ctx *Context, e PointerEvent) {
	ds := ctx.DataSet()
	proj := ds.Projection()
	a, b := p.ref.FirstEastNorth(), p.ref.SecondEastNorth()
	enp := ctx.View().EastNorth(e.Point)
	nearest := geom.ClosestPointToLine(a, b, enp)

	d := enp.Distance(nearest)
	realD := proj.LatLon(enp).GreatCircleDistance(proj.LatLon(nearest))
	snappedRealD := realD
	if geom.AngleIsClockwise(a, b, enp) {
		d = -d
	}

	snapOn := ctx.Prefs().Parallel.Snap != e.Modifiers.Alt
	if snapOn && realD > 0 {
		snappedRealD = snapDistance(realD, ctx.Prefs().ParallelSnapStep(), ctx.Prefs().Parallel.SnapThreshold)
	}
	if realD > 0 {
		d = snappedRealD * (d / realD)
	}

	err := p.gesture.Amend(func() error {
		prev := p.ways.Offset()
		p.ways.SetOffset(d)
		for _, n := range p.ways.SortedNodes() {
			if ds.OutsideWorld(n.EastNorth()) {
				p.ways.SetOffset(prev)
				return errOutsideWorld
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errOutsideWorld) {
			ctx.Prompter().Warn(err.Error())
		} else {
			dbg.Warnf("parallel: %v", err)
		}
		return
	}
	p.realDistance = math.Abs(snappedRealD)

	p.helperStart = nearest
	p.helperEnd = enp
	if n := nearest.Distance(enp); n > 0 {
		p.helperEnd = nearest.Add(enp.Sub(nearest).Scale(math.Abs(d) / n))
	}
}

// Round realD to a whole number of steps. Within threshold (a fraction of the
// step) of the nearest whole step it snaps there, otherwise to the step
// beyond it.
func snapDistance(realD, step, threshold float64) float64 {
	if step <= 0 {
		return realD
	}
	modulo := math.Mod(realD, step)
	var closest float64
	if modulo < step/2 {
		closest = realD - modulo
	} else {
		closest = realD + (step - modulo)
	}
	if math.Abs(closest-realD) < threshold*step {
		return closest
	}
	return closest + math.Copysign(step, realD-closest)
}

func (p *Parallel) Feedback(ctx *Context) Feedback {
	f := Feedback{Cursor: CursorParallel}
	switch {
	case p.dragging:
		f.Highlight = primitives(p.ways.Ways())
		f.Status = fmt.Sprintf("%.2f m", p.realDistance)
	case p.hover != nil:
		f.Highlight = []osm.Primitive{p.hover}
	}
	return f
}

func (p *Parallel) Overlay(ctx *Context) Overlay {
	var o Overlay
	if !p.dragging {
		return o
	}
	o.AddLine(p.ref.FirstEastNorth(), p.ref.SecondEastNorth(), ReferenceLine)
	o.AddLine(p.helperStart, p.helperEnd, SnapLine)
	o.AddLabel(p.helperEnd, fmt.Sprintf("%.2f m", p.realDistance))
	return o
}
