// Package kmlexport renders coverage results as KML for Google Earth and
// the aircraft ground stations.
package kmlexport

import (
	"fmt"
	"image/color"
	"io"

	"github.com/paulmach/orb"
	kml "github.com/twpayne/go-kml"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/coverage"
)

type layerStyle struct {
	label string
	line  color.Color
	fill  color.Color
}

var styles = map[string]layerStyle{
	coverage.LayerFlightPath: {"Trajeto de voo", color.RGBA{R: 255, G: 255, B: 0, A: 255}, nil},
	coverage.LayerPlanned:    {"Área planejada", color.RGBA{R: 255, G: 255, B: 255, A: 255}, color.RGBA{R: 255, G: 255, B: 255, A: 40}},
	coverage.LayerApplied:    {"Área aplicada", color.RGBA{R: 30, G: 144, B: 255, A: 255}, color.RGBA{R: 30, G: 144, B: 255, A: 60}},
	coverage.LayerCorrect:    {"Aplicação correta", color.RGBA{R: 0, G: 180, B: 0, A: 255}, color.RGBA{R: 0, G: 180, B: 0, A: 110}},
	coverage.LayerWaste:      {"Desperdício", color.RGBA{R: 220, G: 0, B: 0, A: 255}, color.RGBA{R: 220, G: 0, B: 0, A: 110}},
	coverage.LayerMissed:     {"Falha de aplicação", color.RGBA{R: 255, G: 140, B: 0, A: 255}, color.RGBA{R: 255, G: 140, B: 0, A: 110}},
}

// Document builds a KML document with one styled placemark per result layer.
func Document(name string, r *coverage.Result) (*kml.CompoundElement, error) {
	doc := kml.Document(
		kml.Name(name),
		kml.Description(fmt.Sprintf("Cobertura %.2f%% | aplicada %.2f ha | desperdício %.2f ha | falha %.2f ha",
			r.CoveragePercent, r.AppliedHa, r.WasteHa, r.MissedHa)),
	)

	for _, f := range r.Layers().Features {
		layer, _ := f.Properties["layer"].(string)
		st, ok := styles[layer]
		if !ok {
			return nil, fmt.Errorf("unknown layer %q", layer)
		}
		geom, err := geometry(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", layer, err)
		}
		if geom == nil {
			continue
		}

		shared := kml.SharedStyle(layer, styleElements(st)...)
		doc.Add(shared)

		pm := kml.Placemark(
			kml.Name(st.label),
			kml.StyleURL(shared.URL()),
			geom,
		)
		if area, ok := f.Properties["area_ha"].(float64); ok {
			pm.Add(kml.Description(fmt.Sprintf("%.4f ha", area)))
		}
		doc.Add(pm)
	}
	return kml.KML(doc), nil
}

// Write renders the result as indented KML.
func Write(w io.Writer, name string, r *coverage.Result) error {
	k, err := Document(name, r)
	if err != nil {
		return err
	}
	return k.WriteIndent(w, "", "  ")
}

func styleElements(st layerStyle) []kml.Element {
	els := []kml.Element{kml.LineStyle(kml.Color(st.line), kml.Width(2))}
	if st.fill != nil {
		els = append(els, kml.PolyStyle(kml.Color(st.fill)))
	} else {
		els = append(els, kml.PolyStyle(kml.Fill(false)))
	}
	return els
}

// geometry converts line and polygon geometries. Empty geometries yield nil.
func geometry(g orb.Geometry) (kml.Element, error) {
	switch g := g.(type) {
	case orb.LineString:
		if len(g) == 0 {
			return nil, nil
		}
		return kml.LineString(kml.Tessellate(true), kml.Coordinates(coords(g)...)), nil
	case orb.Polygon:
		if len(g) == 0 {
			return nil, nil
		}
		return polygon(g), nil
	case orb.MultiPolygon:
		if len(g) == 0 {
			return nil, nil
		}
		if len(g) == 1 {
			return polygon(g[0]), nil
		}
		parts := make([]kml.Element, 0, len(g))
		for _, p := range g {
			parts = append(parts, polygon(p))
		}
		return kml.MultiGeometry(parts...), nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported geometry %s", g.GeoJSONType())
	}
}

func polygon(p orb.Polygon) kml.Element {
	children := []kml.Element{
		kml.OuterBoundaryIs(kml.LinearRing(kml.Coordinates(coords(p[0])...))),
	}
	for _, hole := range p[1:] {
		children = append(children, kml.InnerBoundaryIs(kml.LinearRing(kml.Coordinates(coords(hole)...))))
	}
	return kml.Polygon(children...)
}

func coords[T ~[]orb.Point](pts T) []kml.Coordinate {
	out := make([]kml.Coordinate, len(pts))
	for i, p := range pts {
		out[i] = kml.Coordinate{Lon: p.Lon(), Lat: p.Lat()}
	}
	return out
}
