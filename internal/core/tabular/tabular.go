// Package tabular reads uploaded files into rows of cell strings. It is the
// only place that knows about file formats; everything downstream works on
// [][]string.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/domain"
	"github.com/agnivade/levenshtein"
	"github.com/schollz/closestmatch"
	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Sheet is a named grid of cells. Rows may have different lengths.
type Sheet struct {
	Name string
	Rows [][]string
}

// Cell returns the cell at row i, column j, or "" when out of range.
func (s Sheet) Cell(i, j int) string {
	if i < 0 || i >= len(s.Rows) || j < 0 || j >= len(s.Rows[i]) {
		return ""
	}
	return s.Rows[i][j]
}

// Workbook is the set of sheets read from one upload. Delimited text yields a
// single sheet named after the file.
type Workbook struct {
	Sheets []Sheet
}

var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9% ]+`)
	whitespaceRegex      = regexp.MustCompile(`\s+`)
)

// Fold lowercases s, strips accents and collapses punctuation and spaces, so
// that "  Modalità  Pagamento" and "modalita pagamento" compare equal. "%" is
// kept as a word of its own: "IVA%" folds to "iva %".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	result, _, _ := transform.String(t, s)
	result = strings.ToLower(result)
	result = strings.ReplaceAll(result, "%", " % ")
	result = nonAlphanumericRegex.ReplaceAllString(result, " ")
	result = whitespaceRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// Open reads an upload according to its file extension.
func Open(r io.Reader, filename string) (Workbook, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	case ".xls":
		return ReadXLS(r)
	case ".csv", ".txt", "":
		rows, err := ReadDelimited(r)
		if err != nil {
			return Workbook{}, err
		}
		name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		return Workbook{Sheets: []Sheet{{Name: name, Rows: rows}}}, nil
	default:
		return Workbook{}, &domain.ErrUnsupportedFormat{Ext: ext}
	}
}

// ReadDelimited reads delimited text. The delimiter is sniffed from the first
// non-empty line among ';', ',' and tab. Content that is not valid UTF-8 is
// decoded as Windows-1252, the encoding spreadsheet apps use when exporting on
// Italian Windows installs.
func ReadDelimited(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading delimited file: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var src io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		src = transform.NewReader(bytes.NewReader(data), charmap.Windows1252.NewDecoder())
	}

	reader := csv.NewReader(src)
	reader.Comma = sniffDelimiter(data)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error parsing delimited file: %w", err)
	}
	return records, nil
}

func sniffDelimiter(data []byte) rune {
	var line []byte
	for _, l := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(l)) > 0 {
			line = l
			break
		}
	}

	best, bestCount := ',', 0
	for _, candidate := range []rune{';', ',', '\t'} {
		count, quoted := 0, false
		for _, c := range string(line) {
			switch {
			case c == '"':
				quoted = !quoted
			case c == candidate && !quoted:
				count++
			}
		}
		if count > bestCount {
			best, bestCount = candidate, count
		}
	}
	return best
}

// ReadXLSX reads every sheet of an .xlsx workbook. Cells are read raw, so
// dates come back as Excel serial numbers instead of locale-formatted text.
func ReadXLSX(r io.Reader) (Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Workbook{}, fmt.Errorf("error opening xlsx: %w", err)
	}
	defer f.Close()

	return collectSheets(f.GetSheetList(), func(name string) ([][]string, error) {
		return f.GetRows(name, excelize.Options{RawCellValue: true})
	})
}

// collectSheets reads every named sheet. A sheet that cannot be read fails
// the whole workbook, so sheet selection never falls through to another one.
func collectSheets(names []string, rows func(name string) ([][]string, error)) (Workbook, error) {
	var wb Workbook
	for _, name := range names {
		r, err := rows(name)
		if err != nil {
			return Workbook{}, fmt.Errorf("error reading sheet %q: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: r})
	}
	return wb, nil
}

// ReadXLS reads a legacy .xls workbook, falling back to the xlsx reader for
// files that carry the wrong extension.
func ReadXLS(r io.Reader) (Workbook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Workbook{}, err
	}

	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		if wb, errX := ReadXLSX(bytes.NewReader(data)); errX == nil {
			return wb, nil
		}
		return Workbook{}, fmt.Errorf("error opening xls: %w", err)
	}

	var wb Workbook
	for _, sheet := range workbook.GetSheets() {
		var rows [][]string
		for _, row := range sheet.GetRows() {
			var cells []string
			for _, cell := range row.GetCols() {
				cells = append(cells, cell.GetString())
			}
			rows = append(rows, cells)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: sheet.GetName(), Rows: rows})
	}
	return wb, nil
}

// SelectSheet picks the sheet whose folded name contains keyword. Without
// such a sheet a single-sheet workbook is used as is, otherwise the closest
// name wins if it is a near spelling of keyword. Anything else is
// *domain.ErrSchemaNotFound.
func SelectSheet(wb Workbook, keyword string, source domain.SourceKind) (Sheet, error) {
	if len(wb.Sheets) == 0 {
		return Sheet{}, &domain.ErrSchemaNotFound{Source: source, What: "workbook has no sheets"}
	}

	fk := Fold(keyword)
	names := make([]string, 0, len(wb.Sheets))
	byName := make(map[string]Sheet, len(wb.Sheets))
	for _, s := range wb.Sheets {
		folded := Fold(s.Name)
		if fk != "" && strings.Contains(folded, fk) {
			return s, nil
		}
		if _, dup := byName[folded]; !dup {
			byName[folded] = s
			names = append(names, folded)
		}
	}

	if len(wb.Sheets) == 1 {
		return wb.Sheets[0], nil
	}

	cm := closestmatch.New(names, []int{2, 3})
	if match := cm.Closest(fk); match != "" && nearKeyword(match, fk) {
		return byName[match], nil
	}
	return Sheet{}, &domain.ErrSchemaNotFound{Source: source, What: fmt.Sprintf("no sheet matching %q", keyword)}
}

// nearKeyword reports whether name, or one of its words, is within
// len(keyword)/4 edits of keyword (at least one).
func nearKeyword(name, keyword string) bool {
	if keyword == "" {
		return false
	}
	maxEdits := utf8.RuneCountInString(keyword) / 4
	if maxEdits < 1 {
		maxEdits = 1
	}
	candidates := append([]string{name}, strings.Fields(name)...)
	for _, c := range candidates {
		if levenshtein.ComputeDistance(c, keyword) <= maxEdits {
			return true
		}
	}
	return false
}
