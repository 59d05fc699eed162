package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"monitoring-portal/internal/models"
)

// Band classifies an achievement percentage for color coding.
type Band string

const (
	BandHigh   Band = "on_track"  // >= 80%
	BandMedium Band = "at_risk"   // 50-79%
	BandLow    Band = "off_track" // < 50%
)

// BandFor maps a percentage to its completion band.
func BandFor(pct float64) Band {
	switch {
	case pct >= 80:
		return BandHigh
	case pct >= 50:
		return BandMedium
	default:
		return BandLow
	}
}

var bandColors = map[Band]string{
	BandHigh:   "C6EFCE", // green
	BandMedium: "FFEB9C", // orange
	BandLow:    "FFC7CE", // red
}

var columns = []string{"Indicator", "PBC", "Baseline", "Target", "Achieved", "Achievement %", "Observation"}

// BuildWorkbook renders a snapshot payload into an Excel workbook: one
// worksheet per section plus a summary sheet counting indicators per
// completion band. Pure transformation; zero-target indicators carry a 0%
// without arithmetic issues because the payload already guards them.
func BuildWorkbook(data *models.SnapshotData, title string) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
	})
	if err != nil {
		return nil, err
	}

	bandStyles := make(map[Band]int, len(bandColors))
	for band, color := range bandColors {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return nil, err
		}
		bandStyles[band] = style
	}

	bandCounts := map[Band]int{}
	total := 0

	for i, section := range data.Sections {
		sheet := sheetName(i+1, section.Name)
		if i == 0 {
			f.SetSheetName(f.GetSheetName(0), sheet)
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, err
			}
		}

		if err := f.SetCellValue(sheet, "A1", section.Name); err != nil {
			return nil, err
		}
		for col, name := range columns {
			cell, _ := excelize.CoordinatesToCellName(col+1, 2)
			f.SetCellValue(sheet, cell, name)
			f.SetCellStyle(sheet, cell, cell, headerStyle)
		}

		for row, ind := range section.Indicators {
			r := row + 3
			baseline, _ := ind.Baseline.Float64()
			target, _ := ind.Target.Float64()
			achieved, _ := ind.Achieved.Float64()

			f.SetCellValue(sheet, cell("A", r), ind.Name)
			f.SetCellValue(sheet, cell("B", r), ind.PBCCode)
			f.SetCellValue(sheet, cell("C", r), baseline)
			f.SetCellValue(sheet, cell("D", r), target)
			f.SetCellValue(sheet, cell("E", r), achieved)
			f.SetCellValue(sheet, cell("F", r), ind.Percentage)
			observation := ind.Observation
			if ind.Error != "" {
				observation = strings.TrimSpace(observation + " [calculation error: " + ind.Error + "]")
			}
			f.SetCellValue(sheet, cell("G", r), observation)

			band := BandFor(ind.Percentage)
			f.SetCellStyle(sheet, cell("F", r), cell("F", r), bandStyles[band])
			bandCounts[band]++
			total++
		}

		f.SetColWidth(sheet, "A", "A", 60)
		f.SetColWidth(sheet, "G", "G", 40)
	}

	if err := writeSummary(f, title, data, bandCounts, total, headerStyle, bandStyles); err != nil {
		return nil, err
	}

	return f, nil
}

// writeSummary appends the band-count summary sheet.
func writeSummary(f *excelize.File, title string, data *models.SnapshotData, bandCounts map[Band]int, total int, headerStyle int, bandStyles map[Band]int) error {
	const sheet = "Summary"
	if len(data.Sections) == 0 {
		// Workbook with no sections still gets a valid summary sheet.
		f.SetSheetName(f.GetSheetName(0), sheet)
	} else {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}

	f.SetCellValue(sheet, "A1", title)
	f.SetCellValue(sheet, "A2", fmt.Sprintf("Generated by %s on %s",
		data.Metadata.CreatedBy, data.Metadata.CreatedDate.Format("2006-01-02 15:04")))

	rows := []struct {
		label string
		band  Band
	}{
		{"Indicators at 80% or above", BandHigh},
		{"Indicators between 50% and 79%", BandMedium},
		{"Indicators below 50%", BandLow},
	}

	f.SetCellValue(sheet, "A4", "Completion band")
	f.SetCellValue(sheet, "B4", "Indicators")
	f.SetCellStyle(sheet, "A4", "B4", headerStyle)

	for i, row := range rows {
		r := i + 5
		f.SetCellValue(sheet, cell("A", r), row.label)
		f.SetCellValue(sheet, cell("B", r), bandCounts[row.band])
		f.SetCellStyle(sheet, cell("A", r), cell("A", r), bandStyles[row.band])
	}
	f.SetCellValue(sheet, "A9", "Total indicators")
	f.SetCellValue(sheet, "B9", total)

	f.SetColWidth(sheet, "A", "A", 40)
	return nil
}

// WriteSnapshot renders a snapshot row to an .xlsx file on disk.
func WriteSnapshot(snapshot *models.ResultFrameworkSnapshot, path string) error {
	data, err := snapshot.Payload()
	if err != nil {
		return fmt.Errorf("failed to decode snapshot %d payload: %w", snapshot.ID, err)
	}
	f, err := BuildWorkbook(data, snapshot.Name)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// sheetName builds a worksheet name that satisfies Excel's 31-character
// limit and forbidden-character rules.
func sheetName(index int, name string) string {
	replacer := strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", " ", "]", " ")
	clean := replacer.Replace(name)
	s := fmt.Sprintf("%d. %s", index, clean)
	if len(s) > 31 {
		s = s[:31]
	}
	return strings.TrimSpace(s)
}
