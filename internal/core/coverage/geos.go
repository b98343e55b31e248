package coverage

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/twpayne/go-geos"
)

// go-geos panics on GEOS errors (topology exceptions on invalid input and
// the like), so every call into it goes through binary or unary, which turn
// the panic into an error.

func binary(a, b orb.Geometry, fn func(x, y *geos.Geom) *geos.Geom) (result orb.Geometry, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("geos: %v", r)
		}
	}()

	ga, err := toGEOS(a)
	if err != nil {
		return nil, err
	}
	defer ga.Destroy()

	gb, err := toGEOS(b)
	if err != nil {
		return nil, err
	}
	defer gb.Destroy()

	out := fn(ga, gb)
	defer out.Destroy()
	return fromGEOS(out)
}

func unary(a orb.Geometry, fn func(x *geos.Geom) *geos.Geom) (result orb.Geometry, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("geos: %v", r)
		}
	}()

	ga, err := toGEOS(a)
	if err != nil {
		return nil, err
	}
	defer ga.Destroy()

	out := fn(ga)
	defer out.Destroy()
	return fromGEOS(out)
}

func toGEOS(g orb.Geometry) (*geos.Geom, error) {
	data, err := wkb.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode wkb: %w", err)
	}
	gg, err := geos.NewGeomFromWKB(data)
	if err != nil {
		return nil, fmt.Errorf("decode wkb: %w", err)
	}
	return gg, nil
}

// fromGEOS converts a GEOS result back to orb, keeping only its polygonal
// part. An empty or non-areal result is returned as nil.
func fromGEOS(g *geos.Geom) (orb.Geometry, error) {
	if g == nil || g.IsEmpty() {
		return nil, nil
	}
	out, err := wkb.Unmarshal(g.ToWKB())
	if err != nil {
		return nil, fmt.Errorf("decode wkb: %w", err)
	}
	return polygonal(out), nil
}

// polygonal flattens g to a Polygon or MultiPolygon, dropping points, lines
// and empty parts. It returns nil when nothing areal remains.
func polygonal(g orb.Geometry) orb.Geometry {
	var polys orb.MultiPolygon
	collectPolygons(g, &polys)
	switch len(polys) {
	case 0:
		return nil
	case 1:
		return polys[0]
	default:
		return polys
	}
}

func collectPolygons(g orb.Geometry, acc *orb.MultiPolygon) {
	switch g := g.(type) {
	case orb.Polygon:
		if len(g) > 0 && len(g[0]) > 0 {
			*acc = append(*acc, g)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			collectPolygons(p, acc)
		}
	case orb.Collection:
		for _, c := range g {
			collectPolygons(c, acc)
		}
	}
}

// isPolygonal reports whether g is a non-empty Polygon or MultiPolygon.
func isPolygonal(g orb.Geometry) bool {
	switch g := g.(type) {
	case orb.Polygon:
		return len(g) > 0 && len(g[0]) > 0
	case orb.MultiPolygon:
		for _, p := range g {
			if len(p) > 0 && len(p[0]) > 0 {
				return true
			}
		}
	}
	return false
}
