package curriculum

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/wordsmith/internal/progression"
	"github.com/abhisek/wordsmith/internal/store"
)

// Column headers of the levels sheet. Headers are matched case-insensitively
// and may appear in any order.
const (
	colID           = "id"
	colNumber       = "number"
	colActivity     = "activity_name"
	colTitle        = "prompt_title"
	colInstructions = "prompt_instructions"
	colConcepts     = "target_concepts"
	colRubric       = "rubric"
	colThreshold    = "passing_threshold"
	colMilestone    = "milestone"
)

var requiredColumns = []string{colNumber, colActivity, colTitle, colInstructions, colConcepts, colThreshold}

var exportColumns = []string{
	colID, colNumber, colActivity, colTitle, colInstructions,
	colConcepts, colRubric, colThreshold, colMilestone,
}

// ImportConfig defines where the catalogue lives in a workbook.
type ImportConfig struct {
	LevelsSheet string // Sheet with one row per level and a header row
	MetaSheet   string // Sheet with key/value rows, including "version"

	// Version overrides the version found in the meta sheet.
	Version string
}

// DefaultImportConfig returns the default import configuration.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		LevelsSheet: "levels",
		MetaSheet:   "meta",
	}
}

// ImportResult holds the result of an import.
type ImportResult struct {
	TotalProcessed int
	Imported       int
	Skipped        int
	Errors         []string
}

// ImportXLSX reads a catalogue from a workbook. Tier and finale flags are
// derived from the level number. Any row error fails the import; the
// result lists every problem found.
func ImportXLSX(r io.Reader, cfg ImportConfig) (*Catalogue, *ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	version := cfg.Version
	if version == "" {
		version, err = readVersion(f, cfg.MetaSheet)
		if err != nil {
			return nil, nil, err
		}
	}

	rows, err := f.GetRows(cfg.LevelsSheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", cfg.LevelsSheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %q is empty", cfg.LevelsSheet)
	}

	header := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := header[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("sheet %q is missing columns: %s", cfg.LevelsSheet, strings.Join(missing, ", "))
	}

	result := &ImportResult{}
	cat := &Catalogue{Version: version}
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			result.Skipped++
			continue
		}
		result.TotalProcessed++

		l, err := parseLevel(row, header)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		cat.Levels = append(cat.Levels, l)
		result.Imported++
	}

	if len(result.Errors) > 0 {
		return nil, result, fmt.Errorf("import failed with %d row errors", len(result.Errors))
	}
	cat.Sort()
	if err := cat.Validate(); err != nil {
		return nil, result, err
	}
	return cat, result, nil
}

func readVersion(f *excelize.File, sheet string) (string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	for _, row := range rows {
		if len(row) >= 2 && strings.EqualFold(strings.TrimSpace(row[0]), "version") {
			return strings.TrimSpace(row[1]), nil
		}
	}
	return "", fmt.Errorf("sheet %q has no version row", sheet)
}

func parseLevel(row []string, header map[string]int) (store.LevelRecord, error) {
	cell := func(name string) string {
		i, ok := header[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	number, err := strconv.Atoi(cell(colNumber))
	if err != nil {
		return store.LevelRecord{}, fmt.Errorf("invalid number %q", cell(colNumber))
	}
	threshold, err := strconv.ParseFloat(strings.TrimSuffix(cell(colThreshold), "%"), 64)
	if err != nil {
		return store.LevelRecord{}, fmt.Errorf("invalid passing threshold %q", cell(colThreshold))
	}

	id := cell(colID)
	if id == "" {
		id = LevelID(number)
	}

	var concepts []string
	for _, c := range strings.Split(cell(colConcepts), ",") {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			concepts = append(concepts, c)
		}
	}

	var rubric json.RawMessage
	if raw := cell(colRubric); raw != "" {
		if !json.Valid([]byte(raw)) {
			return store.LevelRecord{}, fmt.Errorf("rubric is not valid JSON")
		}
		rubric = json.RawMessage(raw)
	}

	milestone := number%10 == 0
	if raw := cell(colMilestone); raw != "" {
		milestone, err = parseFlag(raw)
		if err != nil {
			return store.LevelRecord{}, fmt.Errorf("invalid milestone %q", raw)
		}
	}

	return store.LevelRecord{
		ID:                 id,
		Number:             number,
		Tier:               progression.TierOf(number),
		ActivityName:       cell(colActivity),
		PromptTitle:        cell(colTitle),
		PromptInstructions: cell(colInstructions),
		TargetConcepts:     concepts,
		Rubric:             rubric,
		PassingThreshold:   threshold,
		TierFinale:         number%progression.LevelsPerTier == 0,
		ProgrammeFinale:    number == progression.MaxLevel,
		Milestone:          milestone,
	}, nil
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(s)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ExportXLSX writes c as a workbook ImportXLSX can read back.
func ExportXLSX(c *Catalogue, w io.Writer, cfg ImportConfig) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(cfg.MetaSheet); err != nil {
		return fmt.Errorf("create sheet %q: %w", cfg.MetaSheet, err)
	}
	if err := f.SetSheetRow(cfg.MetaSheet, "A1", &[]any{"version", c.Version}); err != nil {
		return fmt.Errorf("write version: %w", err)
	}

	idx, err := f.NewSheet(cfg.LevelsSheet)
	if err != nil {
		return fmt.Errorf("create sheet %q: %w", cfg.LevelsSheet, err)
	}
	header := make([]any, len(exportColumns))
	for i, col := range exportColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(cfg.LevelsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, l := range c.Levels {
		row := []any{
			l.ID, l.Number, l.ActivityName, l.PromptTitle, l.PromptInstructions,
			strings.Join(l.TargetConcepts, ", "), string(l.Rubric), l.PassingThreshold, l.Milestone,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(cfg.LevelsSheet, cell, &row); err != nil {
			return fmt.Errorf("write level %s: %w", l.ID, err)
		}
	}

	f.SetActiveSheet(idx)
	if cfg.LevelsSheet != "Sheet1" && cfg.MetaSheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("delete default sheet: %w", err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
