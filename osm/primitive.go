// Package osm is the node/way graph store the editing modes work against. It
// keeps primitives by ID, answers referrer and spatial queries, tracks the
// selection, and notifies subscribers about changes.
package osm

import (
	"fmt"
	"sync/atomic"

	"github.com/pkg/errors"
)

var (
	ErrOutsideWorld      = errors.New("coordinates outside the world")
	ErrNotInDataSet      = errors.New("primitive is not in the data set")
	ErrAlreadyInDataSet  = errors.New("primitive is already in a data set")
	ErrStillReferenced   = errors.New("node is still referenced by a way")
	ErrConsecutiveRepeat = errors.New("way would contain the same node twice in a row")
)

type PrimitiveType int

const (
	NodeType PrimitiveType = iota
	WayType
)

func (t PrimitiveType) String() string {
	switch t {
	case NodeType:
		return "node"
	case WayType:
		return "way"
	}
	return fmt.Sprintf("PrimitiveType(%d)", int(t))
}

// Node and way IDs live in separate spaces, so a primitive is only identified by
// the pair.
type PrimitiveID struct {
	Type PrimitiveType
	ID   int64
}

func (id PrimitiveID) String() string {
	return fmt.Sprintf("%s %d", id.Type, id.ID)
}

type Primitive interface {
	ID() int64
	PrimitiveID() PrimitiveID
	// New primitives have negative IDs and were created during this session.
	IsNew() bool
	DataSet() *DataSet
	DbgName() string
}

// New primitives count down from -1, shared by nodes and ways so that a
// negative ID is unambiguous in debug output.
var newIDCounter int64

func nextNewID() int64 {
	return atomic.AddInt64(&newIDCounter, -1)
}
