// Package space provides simple two-dimensional planning workspaces used as
// validity checkers in tests and examples: an empty bounded region and a
// region with axis-aligned rectangular walls. Real deployments supply their
// own collision geometry; these implement the same Checker contract.
package space

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/viam-labs/treeplan/spatial"
)

// EmptySpace is a bounded 2D region with no obstacles: any in-bounds
// configuration and any segment between in-bounds endpoints is valid.
type EmptySpace struct {
	bounds spatial.Bounds
}

// NewEmptySpace creates an obstacle-free workspace over 2D bounds.
func NewEmptySpace(bounds spatial.Bounds) (*EmptySpace, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if len(bounds) != 2 {
		return nil, errors.Errorf("space requires 2D bounds, got %d dimensions", len(bounds))
	}
	return &EmptySpace{bounds: bounds}, nil
}

// Bounds returns the workspace extent.
func (s *EmptySpace) Bounds() spatial.Bounds {
	return s.bounds
}

// ValidConfiguration reports whether c lies within the bounds.
func (s *EmptySpace) ValidConfiguration(c spatial.Configuration) bool {
	return s.bounds.Contains(c)
}

// ValidMotion reports whether both endpoints lie within the bounds. The
// region is convex, so the segment between them is then in bounds too.
func (s *EmptySpace) ValidMotion(from, to spatial.Configuration) bool {
	return s.bounds.Contains(from) && s.bounds.Contains(to)
}

// WallSpace is a bounded 2D region with axis-aligned rectangular walls that
// block both configurations and motion segments.
type WallSpace struct {
	*EmptySpace
	walls []r2.Rect
}

// NewWallSpace creates a workspace with rectangular walls, each given by its
// lower-left and upper-right corners.
func NewWallSpace(bounds spatial.Bounds, walls ...[2]spatial.Configuration) (*WallSpace, error) {
	empty, err := NewEmptySpace(bounds)
	if err != nil {
		return nil, err
	}
	s := &WallSpace{EmptySpace: empty}
	for i, w := range walls {
		if len(w[0]) != 2 || len(w[1]) != 2 {
			return nil, errors.Errorf("wall %d corners must be 2D", i)
		}
		rect := r2.RectFromPoints(toPoint(w[0]), toPoint(w[1]))
		if rect.X.Length() == 0 && rect.Y.Length() == 0 {
			return nil, errors.Errorf("wall %d is degenerate", i)
		}
		s.walls = append(s.walls, rect)
	}
	return s, nil
}

func toPoint(c spatial.Configuration) r2.Point {
	return r2.Point{X: c[0], Y: c[1]}
}

// ValidConfiguration reports whether c is in bounds and outside every wall.
func (s *WallSpace) ValidConfiguration(c spatial.Configuration) bool {
	if !s.EmptySpace.ValidConfiguration(c) {
		return false
	}
	p := toPoint(c)
	for _, w := range s.walls {
		if w.ContainsPoint(p) {
			return false
		}
	}
	return true
}

// ValidMotion reports whether the straight segment between from and to stays
// in bounds and crosses no wall.
func (s *WallSpace) ValidMotion(from, to spatial.Configuration) bool {
	if !s.EmptySpace.ValidMotion(from, to) {
		return false
	}
	a, b := toPoint(from), toPoint(to)
	for _, w := range s.walls {
		if segmentIntersectsRect(a, b, w) {
			return false
		}
	}
	return true
}

// segmentIntersectsRect clips the parametric segment a + t*(b-a), t in [0,1],
// against the rectangle's slabs (Liang-Barsky). The segment hits the
// rectangle iff a non-empty parameter interval survives both axes.
func segmentIntersectsRect(a, b r2.Point, rect r2.Rect) bool {
	tMin, tMax := 0.0, 1.0
	if !clipSlab(a.X, b.X-a.X, rect.X.Lo, rect.X.Hi, &tMin, &tMax) {
		return false
	}
	if !clipSlab(a.Y, b.Y-a.Y, rect.Y.Lo, rect.Y.Hi, &tMin, &tMax) {
		return false
	}
	return tMin <= tMax
}

func clipSlab(origin, delta, lo, hi float64, tMin, tMax *float64) bool {
	if delta == 0 {
		return origin >= lo && origin <= hi
	}
	t0 := (lo - origin) / delta
	t1 := (hi - origin) / delta
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	if t0 > *tMin {
		*tMin = t0
	}
	if t1 < *tMax {
		*tMax = t1
	}
	return *tMin <= *tMax
}
