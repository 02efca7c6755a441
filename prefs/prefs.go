// Package prefs holds the tunables of the editing modes. The zero value is not
// useful; start from Default and overlay a YAML document with Load.
package prefs

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type MeasurementSystem string

const (
	Metric   MeasurementSystem = "metric"
	Imperial MeasurementSystem = "imperial"
)

type Preferences struct {
	// Pixel radius for picking nodes and segments
	SnapDistance int `yaml:"snap_distance"`
	// Pixel radius around a segment midpoint that starts a virtual node drag
	VirtualNodeSnapDistance int `yaml:"virtual_node_snap_distance"`
	// Pixel radius in which Draw snaps to the intersection of two segments
	SnapToIntersectionThreshold int `yaml:"snap_to_intersection_threshold"`

	AngleSnap AngleSnap `yaml:"angle_snap"`
	Extrude   Extrude   `yaml:"extrude"`
	Select    Select    `yaml:"select"`
	Parallel  Parallel  `yaml:"parallel"`

	MeasurementSystem MeasurementSystem `yaml:"measurement_system"`
	UndoMax           int               `yaml:"undo_max"`
}

type AngleSnap struct {
	Angles            []float64 `yaml:"angles"`
	Tolerance         float64   `yaml:"tolerance"`
	SnapToProjections bool      `yaml:"snap_to_projections"`
}

type Extrude struct {
	InitialMoveDelay     time.Duration `yaml:"initial_move_delay"`
	InitialMoveThreshold int           `yaml:"initial_move_threshold"`
	IgnoreSharedNodes    bool          `yaml:"ignore_shared_nodes"`
	DualAlign            bool          `yaml:"dual_align"`
}

type Select struct {
	InitialMoveDelay     time.Duration `yaml:"initial_move_delay"`
	InitialMoveThreshold int           `yaml:"initial_move_threshold"`
	WarnMoveMaxElements  int           `yaml:"warn_move_max_elements"`
	Lasso                bool          `yaml:"lasso"`
}

type Parallel struct {
	Snap bool `yaml:"snap"`
	// Step sizes for real distance snapping, in meters
	SnapDistanceMetric   float64 `yaml:"snap_distance_metric"`
	SnapDistanceImperial float64 `yaml:"snap_distance_imperial"`
	// Fraction of a step within which the offset snaps
	SnapThreshold float64 `yaml:"snap_threshold"`
}

const feetToMeters = 0.3048

func Default() *Preferences {
	return &Preferences{
		SnapDistance:                10,
		VirtualNodeSnapDistance:     8,
		SnapToIntersectionThreshold: 10,
		AngleSnap: AngleSnap{
			Angles:            []float64{0, 30, 45, 60, 90, 120, 135, 150, 180},
			Tolerance:         5,
			SnapToProjections: true,
		},
		Extrude: Extrude{
			InitialMoveDelay:     200 * time.Millisecond,
			InitialMoveThreshold: 1,
			IgnoreSharedNodes:    true,
		},
		Select: Select{
			InitialMoveDelay:     200 * time.Millisecond,
			InitialMoveThreshold: 5,
			WarnMoveMaxElements:  20,
		},
		Parallel: Parallel{
			Snap:                 true,
			SnapDistanceMetric:   0.5,
			SnapDistanceImperial: feetToMeters,
			SnapThreshold:        0.35,
		},
		MeasurementSystem: Metric,
		UndoMax:           100,
	}
}

// Overlay a YAML document on the defaults. Keys missing from the document keep
// their default values.
func Load(r io.Reader) (*Preferences, error) {
	p := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(p); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "could not decode preferences")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func LoadFile(path string) (*Preferences, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open preferences %q", path)
	}
	defer f.Close()
	return Load(f)
}

func (p *Preferences) Validate() error {
	switch {
	case p.SnapDistance <= 0:
		return errors.Errorf("snap_distance must be positive, got %d", p.SnapDistance)
	case p.AngleSnap.Tolerance <= 0:
		return errors.Errorf("angle_snap.tolerance must be positive, got %g", p.AngleSnap.Tolerance)
	case p.MeasurementSystem != Metric && p.MeasurementSystem != Imperial:
		return errors.Errorf("unknown measurement_system %q", p.MeasurementSystem)
	case p.Parallel.SnapThreshold < 0 || p.Parallel.SnapThreshold > 0.5:
		return errors.Errorf("parallel.snap_threshold must be in [0, 0.5], got %g", p.Parallel.SnapThreshold)
	}
	return nil
}

// Step in meters for real distance snapping in the configured system.
func (p *Preferences) ParallelSnapStep() float64 {
	if p.MeasurementSystem == Imperial {
		return p.Parallel.SnapDistanceImperial
	}
	return p.Parallel.SnapDistanceMetric
}
