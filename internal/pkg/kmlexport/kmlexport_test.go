package kmlexport

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/coverage"
)

func square(lon, lat, size float64) orb.Polygon {
	return orb.Polygon{{
		{lon, lat}, {lon + size, lat}, {lon + size, lat + size}, {lon, lat + size}, {lon, lat},
	}}
}

func TestWrite(t *testing.T) {
	r := &coverage.Result{
		FlightPath:      orb.LineString{{-48.45, -21.17}, {-48.44, -21.17}},
		Planned:         square(-48.45, -21.18, 0.01),
		Applied:         square(-48.451, -21.171, 0.012),
		Correct:         square(-48.45, -21.17, 0.002),
		Waste:           orb.MultiPolygon{square(-48.451, -21.171, 0.001), square(-48.44, -21.171, 0.001)},
		Missed:          orb.MultiPolygon{},
		PlannedHa:       110,
		AppliedHa:       20,
		CoveragePercent: 18.2,
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "OS 42", r))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<kml"), "output starts with %q", out[:20])
	assert.Contains(t, out, "<name>OS 42</name>")
	assert.Contains(t, out, "Cobertura 18.20%")
	assert.Equal(t, 5, strings.Count(out, "<Placemark>"), "empty missed layer must be skipped")
	assert.Contains(t, out, "<MultiGeometry>")
	assert.Contains(t, out, "<LineString>")
	assert.Contains(t, out, "#waste")

	// Well-formed XML.
	dec := xml.NewDecoder(strings.NewReader(out))
	for {
		if _, err := dec.Token(); err != nil {
			assert.Equal(t, "EOF", err.Error())
			break
		}
	}
}

func TestGeometryPolygonWithHole(t *testing.T) {
	p := orb.Polygon{
		square(0, 0, 10)[0],
		square(2, 2, 1)[0],
	}
	el, err := geometry(p)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, xml.NewEncoder(&buf).Encode(el))
	assert.Contains(t, buf.String(), "<innerBoundaryIs>")
}

func TestGeometryUnsupported(t *testing.T) {
	_, err := geometry(orb.Point{1, 2})
	assert.Error(t, err)
}
