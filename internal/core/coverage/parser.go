package coverage

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// ParseLog turns a newline-delimited "lat,lon[,...]" log into points in
// (lon, lat) order. Lines that do not start with two finite numbers are
// dropped. ParseLog never fails; callers decide whether enough points
// survived.
func ParseLog(buf []byte) []orb.Point {
	points := make([]orb.Point, 0, bytes.Count(buf, []byte{'\n'})+1)
	for _, line := range bytes.Split(buf, []byte{'\n'}) {
		if p, ok := parseLine(string(line)); ok {
			points = append(points, p)
		}
	}
	return points
}

func parseLine(line string) (orb.Point, bool) {
	fields := strings.SplitN(strings.TrimRight(line, "\r"), ",", 3)
	if len(fields) < 2 {
		return orb.Point{}, false
	}
	lat, ok := parseCoord(fields[0])
	if !ok {
		return orb.Point{}, false
	}
	lon, ok := parseCoord(fields[1])
	if !ok {
		return orb.Point{}, false
	}
	return orb.Point{lon, lat}, true
}

func parseCoord(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
