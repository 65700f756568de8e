package labels

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrMissingColumn is returned when a label sheet lacks a required header column.
var ErrMissingColumn = errors.New("labels: missing sheet column")

// Row is one interval line of a label sheet.
type Row struct {
	Video    string
	Label    string
	Interval Interval
}

var requiredColumns = []string{"video", "label", "start", "end"}

// LoadSheet reads label intervals from a .csv file or the first sheet of an .xlsx file.
// The header row names the columns video, label, start, end and optionally unit.
func LoadSheet(path string) ([]Row, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, err = readXLSX(path)
	case ".csv":
		records, err = readCSV(path)
	default:
		return nil, fmt.Errorf("labels: unsupported sheet type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return parseRecords(records)
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open label sheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("label sheet %s has no worksheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read worksheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open label sheet: %w", err)
	}
	defer file.Close()
	return readCSVFrom(file)
}

func readCSVFrom(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse label sheet: %w", err)
	}
	return records, nil
}

func parseRecords(records [][]string) ([]Row, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty sheet", ErrMissingColumn)
	}

	columns := make(map[string]int)
	for i, name := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	unitCol, hasUnit := columns["unit"]

	cell := func(record []string, col int) string {
		if col < len(record) {
			return strings.TrimSpace(record[col])
		}
		return ""
	}

	var rows []Row
	for n, record := range records[1:] {
		line := n + 2
		video := cell(record, columns["video"])
		label := cell(record, columns["label"])
		if video == "" && label == "" {
			continue
		}
		if video == "" || label == "" {
			return nil, fmt.Errorf("label sheet row %d: video and label are required", line)
		}

		start, err := strconv.ParseFloat(cell(record, columns["start"]), 64)
		if err != nil {
			return nil, fmt.Errorf("label sheet row %d: start: %w", line, err)
		}
		end, err := strconv.ParseFloat(cell(record, columns["end"]), 64)
		if err != nil {
			return nil, fmt.Errorf("label sheet row %d: end: %w", line, err)
		}
		unit := UnitFrame
		if hasUnit {
			unit, err = ParseUnit(cell(record, unitCol))
			if err != nil {
				return nil, fmt.Errorf("label sheet row %d: %w", line, err)
			}
		}

		iv := Interval{Start: start, End: end, Unit: unit}
		if err := iv.Validate(); err != nil {
			return nil, fmt.Errorf("label sheet row %d: %w", line, err)
		}
		rows = append(rows, Row{Video: video, Label: label, Interval: iv})
	}
	return rows, nil
}

// Merge appends the sheet rows to the intervals of the matching label configs.
// The configs are copied; a row naming an unconfigured label is an error.
func Merge(configs []LabelConfig, rows []Row) ([]LabelConfig, error) {
	out := make([]LabelConfig, len(configs))
	index := make(map[string]int, len(configs))
	for i, c := range configs {
		intervals := make(map[string][]Interval, len(c.Intervals))
		for video, ivs := range c.Intervals {
			intervals[video] = append([]Interval(nil), ivs...)
		}
		out[i] = LabelConfig{Name: c.Name, Intervals: intervals}
		index[c.Name] = i
	}

	for _, row := range rows {
		i, ok := index[row.Label]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLabel, row.Label)
		}
		out[i].Intervals[row.Video] = append(out[i].Intervals[row.Video], row.Interval)
	}
	return out, nil
}
