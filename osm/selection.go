package osm

// The selection is an ordered set of primitive IDs. Lookups resolve IDs against
// the current primitives, so a way that was swapped for its edited copy stays
// selected.

func (ds *DataSet) Selected() []Primitive {
	result := make([]Primitive, 0, len(ds.selection))
	for _, id := range ds.selection {
		if p := ds.Primitive(id); p != nil {
			result = append(result, p)
		}
	}
	return result
}

func (ds *DataSet) SelectedNodes() []*Node {
	var result []*Node
	for _, id := range ds.selection {
		if id.Type == NodeType {
			if n := ds.nodes[id.ID]; n != nil {
				result = append(result, n)
			}
		}
	}
	return result
}

func (ds *DataSet) SelectedWays() []*Way {
	var result []*Way
	for _, id := range ds.selection {
		if id.Type == WayType {
			if w := ds.ways[id.ID]; w != nil {
				result = append(result, w)
			}
		}
	}
	return result
}

func (ds *DataSet) IsSelected(p Primitive) bool {
	return ds.selected[p.PrimitiveID()]
}

func (ds *DataSet) SelectionEmpty() bool {
	return len(ds.selection) == 0
}

// Replace the selection. Primitives that are not in the data set are ignored.
func (ds *DataSet) SetSelected(prims ...Primitive) {
	ids := make([]PrimitiveID, 0, len(prims))
	seen := make(map[PrimitiveID]bool, len(prims))
	for _, p := range prims {
		id := p.PrimitiveID()
		if seen[id] || ds.Primitive(id) == nil {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if equalIDs(ids, ds.selection) {
		return
	}
	ds.selection = ids
	ds.selected = seen
	ds.fireSelection()
}

func (ds *DataSet) AddSelected(prims ...Primitive) {
	changed := false
	for _, p := range prims {
		id := p.PrimitiveID()
		if ds.selected[id] || ds.Primitive(id) == nil {
			continue
		}
		ds.selected[id] = true
		ds.selection = append(ds.selection, id)
		changed = true
	}
	if changed {
		ds.fireSelection()
	}
}

func (ds *DataSet) ClearSelected(prims ...Primitive) {
	changed := false
	for _, p := range prims {
		changed = ds.deselect(p.PrimitiveID()) || changed
	}
	if changed {
		ds.fireSelection()
	}
}

// Flip the selection state of each primitive.
func (ds *DataSet) ToggleSelected(prims ...Primitive) {
	changed := false
	for _, p := range prims {
		id := p.PrimitiveID()
		if ds.selected[id] {
			ds.deselect(id)
			changed = true
		} else if ds.Primitive(id) != nil {
			ds.selected[id] = true
			ds.selection = append(ds.selection, id)
			changed = true
		}
	}
	if changed {
		ds.fireSelection()
	}
}

func (ds *DataSet) ClearSelection() {
	if len(ds.selection) == 0 {
		return
	}
	ds.selection = nil
	ds.selected = make(map[PrimitiveID]bool)
	ds.fireSelection()
}

func (ds *DataSet) deselect(id PrimitiveID) bool {
	if !ds.selected[id] {
		return false
	}
	delete(ds.selected, id)
	for i, other := range ds.selection {
		if other == id {
			ds.selection = append(ds.selection[:i:i], ds.selection[i+1:]...)
			break
		}
	}
	return true
}

// Removed primitives leave the selection.
func (ds *DataSet) dropFromSelection(id PrimitiveID) {
	if ds.deselect(id) {
		ds.fireSelection()
	}
}

func (ds *DataSet) fireSelection() {
	ds.fire(Event{Kind: SelectionChanged, Primitives: ds.Selected()})
}

func equalIDs(a, b []PrimitiveID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
