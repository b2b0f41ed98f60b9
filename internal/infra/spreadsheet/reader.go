// internal/infra/spreadsheet/reader.go
package spreadsheet

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"seller_escalation_bot/internal/domain/quality"
)

// Column positions of the weekly metrics sheet.
const (
	colDateKPI = iota
	colTimePeriod
	colSellerID
	colSellerName
	colOwnerName
	colTier
	colActivityType
	colDefectiveRate
	colDefectiveCount
	colDefectiveStreak
	colDefectiveLabel
	colDefectiveAction
	colAppearanceRate
	colAppearanceCount
	colAppearanceStreak
	colAppearanceLabel
	colAppearanceAction
	colWeekNumber
	colFinalAction
	colEmail

	columnCount
)

// excelize drops trailing empty cells, so a row with a blank final action and
// email still counts as complete once it reaches the week number.
const minColumns = colWeekNumber + 1

var dateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006", "1/2/06", "2006-01-02 15:04:05", time.RFC3339}

// Reader loads precomputed seller snapshots from an .xlsx workbook.
type Reader struct {
	path     string
	sheet    string
	resolver *quality.Resolver
	log      *logrus.Entry
}

// NewReader creates a Reader. An empty sheet name selects the first worksheet.
func NewReader(path, sheet string, resolver *quality.Resolver, log *logrus.Entry) *Reader {
	return &Reader{
		path:     path,
		sheet:    sheet,
		resolver: resolver,
		log:      log.WithFields(logrus.Fields{"component": "spreadsheet", "path": path}),
	}
}

// LoadSnapshots reads every data row. Rows that cannot be decoded are
// returned in Batch.Skipped; only an unreadable workbook is an error.
func (r *Reader) LoadSnapshots(ctx context.Context) (*quality.Batch, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows of %q: %w", sheet, err)
	}

	batch := &quality.Batch{}
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isBlank(row) {
			continue
		}
		snap, err := r.decode(row)
		if err != nil {
			rowErr := quality.RowError{Row: i + 1, Err: err}
			r.log.WithError(err).WithField("row", i+1).Warn("Skipping sheet row")
			batch.Skipped = append(batch.Skipped, rowErr)
			continue
		}
		batch.Snapshots = append(batch.Snapshots, snap)
	}

	r.log.WithFields(logrus.Fields{
		"sheet":   sheet,
		"rows":    len(batch.Snapshots),
		"skipped": len(batch.Skipped),
	}).Info("Loaded seller snapshots from sheet")
	return batch, nil
}

// decode turns one positional row into a snapshot and re-resolves its action
// from the streaks and labels it carries.
func (r *Reader) decode(row []string) (quality.SellerSnapshot, error) {
	if len(row) < minColumns {
		return quality.SellerSnapshot{}, fmt.Errorf("%w: got %d, want at least %d", quality.ErrShortRow, len(row), minColumns)
	}
	cells := make([]string, columnCount)
	copy(cells, row)
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}

	p := &cellParser{cells: cells}
	s := quality.SellerSnapshot{
		SellerProfile: quality.SellerProfile{
			SellerID:     quality.NormalizeSellerID(cells[colSellerID]),
			SellerName:   cells[colSellerName],
			OwnerName:    cells[colOwnerName],
			Tier:         cells[colTier],
			ActivityType: cells[colActivityType],
			Email:        cells[colEmail],
		},
		DateKPI:          p.date(colDateKPI),
		TimePeriod:       cells[colTimePeriod],
		WeekNumber:       p.integer(colWeekNumber),
		DefectiveRate:    p.rate(colDefectiveRate),
		DefectiveCount:   p.integer(colDefectiveCount),
		DefectiveStreak:  p.integer(colDefectiveStreak),
		DefectiveLabel:   p.label(colDefectiveLabel),
		AppearanceRate:   p.rate(colAppearanceRate),
		AppearanceCount:  p.integer(colAppearanceCount),
		AppearanceStreak: p.integer(colAppearanceStreak),
		AppearanceLabel:  p.label(colAppearanceLabel),
	}
	sheetAction := p.action(colFinalAction)
	if p.err != nil {
		return quality.SellerSnapshot{}, p.err
	}
	if s.SellerID == "" {
		return quality.SellerSnapshot{}, fmt.Errorf("%w: empty seller id", quality.ErrInvalidRow)
	}
	if s.WeekNumber == 0 && !s.DateKPI.IsZero() {
		_, s.WeekNumber = s.DateKPI.ISOWeek()
	}

	def, app := s.Evaluations()
	d := r.resolver.Resolve(def, app)
	if err := d.Validate(def, app); err != nil {
		return quality.SellerSnapshot{}, err
	}
	s.Apply(d)

	if sheetAction != d.FinalAction && !d.Excluded {
		r.log.WithFields(logrus.Fields{
			"seller_id":    s.SellerID,
			"sheet_action": sheetAction.String(),
			"derived":      d.FinalAction.String(),
		}).Warn("Sheet final action disagrees with derived action, using derived")
	}
	return s, nil
}

// cellParser keeps the first decoding error so a row can be parsed in one pass.
type cellParser struct {
	cells []string
	err   error
}

func (p *cellParser) fail(col int, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: column %d: %v", quality.ErrInvalidRow, col+1, err)
	}
}

func (p *cellParser) number(col int) float64 {
	v := p.cells[col]
	if v == "" {
		return 0
	}
	percent := strings.HasSuffix(v, "%")
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
	if err != nil {
		p.fail(col, err)
		return 0
	}
	if percent {
		f /= 100
	}
	return f
}

func (p *cellParser) rate(col int) float64 {
	return p.number(col)
}

func (p *cellParser) integer(col int) int {
	f := p.number(col)
	if f != float64(int(f)) {
		p.fail(col, fmt.Errorf("%v is not a whole number", f))
	}
	return int(f)
}

func (p *cellParser) label(col int) quality.Label {
	l, err := quality.ParseLabel(p.cells[col])
	if err != nil {
		p.fail(col, err)
	}
	return l
}

func (p *cellParser) action(col int) quality.Action {
	a, err := quality.ParseAction(p.cells[col])
	if err != nil {
		p.fail(col, err)
	}
	return a
}

func (p *cellParser) date(col int) time.Time {
	v := p.cells[col]
	if v == "" {
		return time.Time{}
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			p.fail(col, err)
		}
		return t
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	p.fail(col, fmt.Errorf("unrecognized date %q", v))
	return time.Time{}
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
