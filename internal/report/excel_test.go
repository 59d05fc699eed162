package report_test

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monitoring-portal/internal/models"
	"monitoring-portal/internal/report"
)

func TestBandFor(t *testing.T) {
	tests := []struct {
		pct  float64
		want report.Band
	}{
		{100, report.BandHigh},
		{80, report.BandHigh},
		{79.9, report.BandMedium},
		{50, report.BandMedium},
		{49.9, report.BandLow},
		{0, report.BandLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, report.BandFor(tt.pct), "pct %v", tt.pct)
	}
}

func sampleData() *models.SnapshotData {
	return &models.SnapshotData{
		Sections: []models.SnapshotSection{
			{
				ID:   1,
				Name: "Social safety net",
				Indicators: []models.SnapshotIndicator{
					{
						ID:         1,
						Name:       "Households registered",
						PBCCode:    "PBC-1",
						Target:     decimal.NewFromInt(100),
						Achieved:   decimal.NewFromInt(90),
						Percentage: 90,
					},
					{
						ID:         2,
						Name:       "Broken indicator",
						Target:     decimal.NewFromInt(100),
						Percentage: 0,
						Error:      "Unknown calculation method: count_unicorns",
					},
				},
			},
			{
				ID:   2,
				Name: "Livelihoods",
				Indicators: []models.SnapshotIndicator{
					{
						ID:         3,
						Name:       "Trainings held",
						Target:     decimal.NewFromInt(40),
						Achieved:   decimal.NewFromInt(24),
						Percentage: 60,
					},
				},
			},
		},
		Metadata: models.SnapshotMetadata{CreatedDate: time.Now(), CreatedBy: "alice"},
	}
}

func TestBuildWorkbook(t *testing.T) {
	f, err := report.BuildWorkbook(sampleData(), "Q1 review")
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Len(t, sheets, 3)
	assert.Contains(t, sheets, "Summary")

	// One sheet per section, named after it.
	name, err := f.GetCellValue(sheets[0], "A1")
	require.NoError(t, err)
	assert.Equal(t, "Social safety net", name)

	// The calculation error rides along in the observation column.
	obs, err := f.GetCellValue(sheets[0], "G4")
	require.NoError(t, err)
	assert.Contains(t, obs, "Unknown calculation method")
}

func TestBuildWorkbook_EmptySnapshot(t *testing.T) {
	data := &models.SnapshotData{}
	f, err := report.BuildWorkbook(data, "Empty")
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary"}, f.GetSheetList())
}

func TestWriteSnapshot(t *testing.T) {
	payload, err := json.Marshal(sampleData())
	require.NoError(t, err)
	snapshot := &models.ResultFrameworkSnapshot{
		ID:     1,
		Name:   "Q1 review",
		Status: models.SnapshotStatusDraft,
		Data:   payload,
	}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, report.WriteSnapshot(snapshot, path))
	assert.FileExists(t, path)
}
