package influx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/coverage"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
)

func TestPointCompleted(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := Point(&domain.CoverageEvent{
		ApplicationID:   "app-1",
		WorkOrderID:     "wo-1",
		FarmID:          "farm-1",
		Status:          domain.ApplicationCompleted,
		AppliedHa:       2.1,
		CorrectHa:       1.4,
		CoveragePercent: 93.3,
		Time:            at,
	})

	assert.Equal(t, measurement, p.Name())
	assert.Equal(t, at, p.Time())

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, "farm-1", tags["farm_id"])
	assert.Equal(t, "Concluído", tags["status"])
	assert.NotContains(t, tags, "failure_kind")

	fields := map[string]interface{}{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, 93.3, fields["coverage_percent"])
	assert.Equal(t, "app-1", fields["application_id"])
}

func TestPointFailedCarriesKind(t *testing.T) {
	p := Point(&domain.CoverageEvent{
		FarmID:      "farm-1",
		Status:      domain.ApplicationFailed,
		FailureKind: coverage.KindInsufficientLogData,
		Time:        time.Now(),
	})

	var kind string
	for _, tag := range p.TagList() {
		if tag.Key == "failure_kind" {
			kind = tag.Value
		}
	}
	assert.Equal(t, string(coverage.KindInsufficientLogData), kind)
}
