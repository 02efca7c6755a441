package osm

type EventKind int

const (
	SelectionChanged EventKind = iota
	PrimitivesAdded
	PrimitivesRemoved
	// A way's node list changed, either in place or by swapping in a copy.
	WayReplaced
	NodeMoved
)

func (k EventKind) String() string {
	switch k {
	case SelectionChanged:
		return "SelectionChanged"
	case PrimitivesAdded:
		return "PrimitivesAdded"
	case PrimitivesRemoved:
		return "PrimitivesRemoved"
	case WayReplaced:
		return "WayReplaced"
	case NodeMoved:
		return "NodeMoved"
	}
	return "EventKind(?)"
}

type Event struct {
	Kind EventKind
	// The primitives the event is about. For SelectionChanged, the new
	// selection.
	Primitives []Primitive
}

// Subscription is a registered listener with an explicit lifetime. Modes open
// their subscriptions when they are entered and close them on exit, so no event
// reaches a mode that is no longer active.
type Subscription struct {
	ds     *DataSet
	kinds  map[EventKind]bool
	f      func(Event)
	closed bool
}

// Listen to the given kinds of events, or to all of them if none are given.
// Listeners run synchronously, in subscription order.
func (ds *DataSet) Subscribe(f func(Event), kinds ...EventKind) *Subscription {
	s := &Subscription{ds: ds, f: f}
	if len(kinds) > 0 {
		s.kinds = make(map[EventKind]bool, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = true
		}
	}
	ds.subscriptions = append(ds.subscriptions, s)
	return s
}

// Stop delivering events. Closing twice is harmless.
func (s *Subscription) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	subs := s.ds.subscriptions
	for i, other := range subs {
		if other == s {
			s.ds.subscriptions = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
}

func (ds *DataSet) fire(e Event) {
	if len(ds.subscriptions) == 0 {
		return
	}
	// Listeners may subscribe or close while we deliver
	subs := append([]*Subscription(nil), ds.subscriptions...)
	for _, s := range subs {
		if s.closed {
			continue
		}
		if s.kinds != nil && !s.kinds[e.Kind] {
			continue
		}
		s.f(e)
	}
}
