package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/abhisek/latihan/internal/question"
)

// Format is a spreadsheet container.
type Format int

const (
	FormatXLSX Format = iota
	FormatCSV
)

func (f Format) String() string {
	if f == FormatCSV {
		return "csv"
	}
	return "xlsx"
}

// ErrUnsupportedFormat is returned for file extensions other than .xlsx and .csv.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// FormatFromPath picks the container from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Policy decides what a malformed row does to the rest of the import.
type Policy int

const (
	// PolicyAbort fails the whole import on the first malformed row.
	PolicyAbort Policy = iota
	// PolicySkip records malformed rows in Result.Skipped and keeps going.
	PolicySkip
)

// ParsePolicy accepts "abort" or "skip".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return PolicyAbort, nil
	case "skip":
		return PolicySkip, nil
	default:
		return 0, fmt.Errorf("unknown row policy %q (want abort or skip)", s)
	}
}

// ImportError is an import that produced nothing: the container could not
// be read, or a row was malformed under PolicyAbort.
type ImportError struct {
	Source string
	Row    int // 0 when the container itself failed
	Err    error
}

func (e *ImportError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("import %s: row %d: %v", e.Source, e.Row, e.Err)
	}
	return fmt.Sprintf("import %s: %v", e.Source, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// ImportOptions configures Read.
type ImportOptions struct {
	Policy Policy
	Logger *zap.Logger
	Now    func() time.Time
}

// Result is a decoded sheet.
type Result struct {
	Records  []question.Record
	Skipped  []*RowError
	Excluded int // rows dropped for empty question text
	Flagged  int // records carrying decode issues

	// Settings come from the first data row when present.
	Settings    Settings
	HasSettings bool
}

// ReadFile opens and decodes path.
func ReadFile(path string, opts ImportOptions) (Result, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Result{}, &ImportError{Source: path, Err: err}
	}
	f, err := os.Open(path)
	if err != nil {
		return Result{}, &ImportError{Source: path, Err: err}
	}
	defer f.Close()
	return read(f, format, path, opts)
}

// Read decodes a sheet from r.
func Read(r io.Reader, format Format, opts ImportOptions) (Result, error) {
	return read(r, format, format.String(), opts)
}

func read(r io.Reader, format Format, source string, opts ImportOptions) (Result, error) {
	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = readCSV(r)
	default:
		rows, err = readXLSX(r)
	}
	if err != nil {
		return Result{}, &ImportError{Source: source, Err: err}
	}
	res, err := decodeRows(rows, opts)
	if err != nil {
		var re *RowError
		if errors.As(err, &re) {
			return Result{}, &ImportError{Source: source, Row: re.Row, Err: re.Err}
		}
		return Result{}, &ImportError{Source: source, Err: err}
	}
	return res, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}

func decodeRows(rows [][]string, opts ImportOptions) (Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	var res Result
	if len(rows) < 2 {
		return res, nil
	}
	data := rows[1:]
	res.Settings, res.HasSettings = DecodeSettings(data[0])

	ts := now()
	for i, row := range data {
		if blankRow(row) {
			continue
		}
		if ColText >= len(row) || strings.TrimSpace(row[ColText]) == "" {
			res.Excluded++
			continue
		}
		rec, err := DecodeRow(row, i, ts)
		if err != nil {
			if opts.Policy == PolicyAbort {
				return Result{}, err
			}
			var re *RowError
			if errors.As(err, &re) {
				res.Skipped = append(res.Skipped, re)
			}
			log.Warn("skipping malformed row", zap.Int("row", i+2), zap.Error(err))
			continue
		}
		if len(rec.Issues) > 0 {
			res.Flagged++
			log.Warn("row answer key defaulted",
				zap.Int("row", i+2),
				zap.String("type", string(rec.Type)),
				zap.Strings("issues", rec.Issues))
		}
		res.Records = append(res.Records, rec)
	}

	log.Info("sheet decoded",
		zap.Int("records", len(res.Records)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("excluded", res.Excluded),
		zap.Int("flagged", res.Flagged))
	return res, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteFile writes records with the header row. The container is chosen by
// the extension of path.
func WriteFile(path string, records []question.Record, s Settings) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, format, records, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write encodes records with the header row. A record without an order is
// numbered by its position.
func Write(w io.Writer, format Format, records []question.Record, s Settings) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, Header)
	for i, r := range records {
		if r.Order <= 0 {
			r.Order = i + 1
		}
		rows = append(rows, EncodeRow(r, s))
	}
	return writeRows(w, format, "Daftar Soal", rows)
}

// TemplateRows are the sample rows of the downloadable template.
var TemplateRows = [][]string{
	{"1", "Pilihan Ganda", "L2", "Sistem Pencernaan", "Apa fungsi lambung?", "", "Menyerap air", "Mencerna protein", "Menghasilkan empedu", "Menyimpan feses", "", "B", "Lambung menghasilkan pepsin untuk protein", "BIO1", "60", "Ya", "Ya", "Biologi"},
	{"2", "URAIAN", "L3", "Fotosintesis", "Jelaskan reaksi terang!", "", "", "", "", "", "", "Reaksi yang butuh cahaya...", "Terjadi di tilakoid", "BIO1", "60", "Ya", "Ya", "Biologi"},
}

// WriteTemplate writes the header plus the sample rows to path.
func WriteTemplate(path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	rows := append([][]string{Header}, TemplateRows...)
	if err := writeRows(f, format, "Template", rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeRows(w io.Writer, format Format, sheetName string, rows [][]string) error {
	if format == FormatCSV {
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(rows); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		return nil
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		values := toCells(row, i == 0)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// toCells keeps the order and duration columns numeric in xlsx output.
func toCells(row []string, header bool) []any {
	out := make([]any, len(row))
	for i, c := range row {
		out[i] = c
		if header || (i != ColOrder && i != ColDuration) {
			continue
		}
		if n, err := strconv.Atoi(c); err == nil {
			out[i] = n
		}
	}
	return out
}
