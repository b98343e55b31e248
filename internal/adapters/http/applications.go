package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/coverage"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/kmlexport"
)

// defaultMaxLogBytes bounds flight log uploads when Dependencies.MaxLogBytes
// is unset.
const defaultMaxLogBytes = 16 << 20

var errLogTooLarge = errors.New("flight log is too large")

// SubmitFlightLogHandler accepts a raw GPS log ("lat,lon" per line), either
// as the request body or as the multipart file "log", and schedules its
// processing. It answers 202 with the application in Processando.
func SubmitFlightLogHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload, err := readFlightLog(c, deps.maxLogBytes())
		if errors.Is(err, errLogTooLarge) {
			return newError(c, fiber.StatusRequestEntityTooLarge, "payload_too_large",
				fmt.Sprintf("flight log exceeds %d bytes", deps.maxLogBytes()))
		}
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		app, err := deps.Applications.SubmitLog(c.UserContext(), c.Params("id"), payload)
		if err != nil && app == nil {
			return errFromDomain(c, err)
		}
		if err != nil {
			// Stored but not dispatched; it stays in Processando until
			// POST /v1/applications/:id/retry.
			LoggerFromCtx(c.UserContext()).Error("dispatch failed", "application_id", app.ID, "error", err)
		}
		c.Location("/v1/applications/" + app.ID)
		return c.Status(fiber.StatusAccepted).JSON(app)
	}
}

// readFlightLog returns the uploaded log, or errLogTooLarge when it is longer
// than limit. A log is never cut short.
func readFlightLog(c *fiber.Ctx, limit int64) ([]byte, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		body := c.Body()
		if int64(len(body)) > limit {
			return nil, errLogTooLarge
		}
		// fasthttp reuses the body buffer once the handler returns.
		return bytes.Clone(body), nil
	}
	fh, err := c.FormFile("log")
	if err != nil {
		return nil, errors.New(`multipart upload must carry the flight log in the "log" file field`)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errLogTooLarge
	}
	return data, nil
}

// RetryApplicationHandler dispatches an application stuck in Processando
// again.
func RetryApplicationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		app, err := deps.Applications.Retry(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Location("/v1/applications/" + app.ID)
		return c.Status(fiber.StatusAccepted).JSON(app)
	}
}

// processLogRequest is the body of the legacy process-log endpoint.
type processLogRequest struct {
	FlightPath json.RawMessage `json:"flightPath"`
	Polyline   string          `json:"polyline"`
}

// ProcessLogHandler is the legacy entry point taking the flight path as a
// GeoJSON LineString ("flightPath") or an encoded polyline ("polyline").
func ProcessLogHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req processLogRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		var (
			source  domain.LogSource
			payload []byte
		)
		switch {
		case len(req.FlightPath) > 0 && !bytes.Equal(req.FlightPath, []byte("null")):
			source, payload = domain.SourceGeoJSON, bytes.Clone(req.FlightPath)
		case req.Polyline != "":
			source, payload = domain.SourcePolyline, []byte(req.Polyline)
		default:
			return errBadRequest(c, "a GeoJSON LineString 'flightPath' or an encoded 'polyline' is required")
		}

		app, err := deps.Applications.SubmitTrack(c.UserContext(), c.Params("id"), source, payload)
		if err != nil && app == nil {
			return errFromDomain(c, err)
		}
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("dispatch failed", "application_id", app.ID, "error", err)
		}
		c.Location("/v1/applications/" + app.ID)
		return c.Status(fiber.StatusAccepted).JSON(app)
	}
}

// ListApplicationsHandler lists application summaries.
func ListApplicationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := pageParams(c, 50, 100)
		list, err := deps.Applications.List(c.UserContext(), domain.ApplicationFilter{
			WorkOrderID: c.Query("work_order_id"),
			FarmID:      c.Query("farm_id"),
			Status:      domain.ApplicationStatus(c.Query("status")),
			Limit:       limit + 1,
			Offset:      offset,
		})
		if err != nil {
			return errFromDomain(c, err)
		}

		pg := Pagination{Offset: offset, Limit: limit}
		if len(list) > limit {
			list, pg.HasMore = list[:limit], true
		}
		if list == nil {
			list = []domain.ApplicationSummary{}
		}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: list, Pagination: pg})
	}
}

// GetApplicationHandler returns an application with its coverage result or
// failure.
func GetApplicationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		app, err := deps.Applications.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(app)
	}
}

// coverageOf loads an application and returns its result, or writes the
// error response and returns nil.
func coverageOf(c *fiber.Ctx, deps *Dependencies) (*coverage.Result, error) {
	app, err := deps.Applications.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, errFromDomain(c, err)
	}
	switch {
	case app.Coverage != nil:
		c.Set(fiber.HeaderCacheControl, resultCacheControl)
		return app.Coverage, nil
	case app.Status == domain.ApplicationProcessing:
		return nil, errConflict(c, "application is still being processed")
	default:
		return nil, errUnprocessable(c, "application has no coverage result")
	}
}

// ApplicationGeoJSONHandler returns every result layer as a
// FeatureCollection.
func ApplicationGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := coverageOf(c, deps)
		if res == nil {
			return err
		}
		data, err := res.Layers().MarshalJSON()
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}

// ApplicationKMLHandler returns the result layers as a KML download.
func ApplicationKMLHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := coverageOf(c, deps)
		if res == nil {
			return err
		}
		id := c.Params("id")
		var buf bytes.Buffer
		if err := kmlexport.Write(&buf, "Aplicação "+id, res); err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/vnd.google-earth.kml+xml")
		c.Attachment("aplicacao-" + id + ".kml")
		return c.Send(buf.Bytes())
	}
}

// ApplicationFlightPathHandler returns the flight path as an encoded
// polyline for lightweight map rendering.
func ApplicationFlightPathHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := coverageOf(c, deps)
		if res == nil {
			return err
		}
		return c.JSON(fiber.Map{
			"polyline":        coverage.EncodePolyline(res.FlightPath),
			"point_count":     res.PointCount,
			"flight_length_m": res.FlightLengthMeters,
		})
	}
}

// previewRequest is the body of POST /v1/coverage/preview. Exactly one of
// log, flight_path and polyline carries the track.
type previewRequest struct {
	Log        string                     `json:"log"`
	FlightPath json.RawMessage            `json:"flight_path"`
	Polyline   string                     `json:"polyline"`
	SwathWidth float64                    `json:"swath_width"`
	Targets    *geojson.FeatureCollection `json:"targets"`
}

// CoveragePreviewHandler runs the coverage analysis on an inline payload
// without storing anything. Failed analyses answer 422 with the failure.
func CoveragePreviewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req previewRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		in := coverage.Input{SwathWidthMeters: req.SwathWidth}
		switch {
		case len(req.FlightPath) > 0 && !bytes.Equal(req.FlightPath, []byte("null")):
			pts, err := coverage.PointsFromGeoJSON(req.FlightPath)
			if err != nil {
				return errBadRequest(c, err.Error())
			}
			in.Points = nonNil(pts)
		case req.Polyline != "":
			pts, err := coverage.PointsFromPolyline(req.Polyline)
			if err != nil {
				return errBadRequest(c, err.Error())
			}
			in.Points = nonNil(pts)
		default:
			in.Log = []byte(req.Log)
		}
		if req.Targets != nil {
			for _, f := range req.Targets.Features {
				if f.Geometry != nil {
					in.Targets = append(in.Targets, f.Geometry)
				}
			}
		}

		out := deps.Applications.Analyze(c.UserContext(), in)
		if !out.OK() {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(out)
		}
		return c.JSON(out)
	}
}

func nonNil(pts []orb.Point) []orb.Point {
	if pts == nil {
		return []orb.Point{}
	}
	return pts
}
