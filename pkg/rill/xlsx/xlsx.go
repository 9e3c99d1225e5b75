// Package xlsx reads the cell contents of Office Open XML spreadsheets.
//
// A workbook is a zip archive of XML parts. This decoder reads only what is
// needed to recover typed cell values: the workbook part for sheet names,
// the relationships part to locate each sheet, the shared string table, and
// the sheet data itself. Formatting, formulas, and charts are ignored.
package xlsx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CellKind discriminates the typed value held in a Cell
type CellKind int

const (
	CellEmpty CellKind = iota
	CellString
	CellInt
	CellFloat
	CellBool
)

// Cell is one typed spreadsheet cell
type Cell struct {
	Kind  CellKind
	Str   string
	Int   int64
	Float float64
	Bool  bool
}

// Sheet is one worksheet: its name and a dense grid of rows. Each row runs
// from column 0 to the last populated column of that row, with gaps filled
// by empty cells.
type Sheet struct {
	Name string
	Rows [][]Cell
}

// MissingSheetError reports a requested sheet that the workbook lacks
type MissingSheetError struct {
	Name string
}

func (e *MissingSheetError) Error() string {
	return fmt.Sprintf("no sheet named %q", e.Name)
}

// Decode parses workbook bytes. When wanted is non-empty only the named
// sheets are returned, in the order requested; a name with no matching sheet
// is a MissingSheetError. With wanted empty, all sheets are returned in
// workbook order.
func Decode(data []byte, wanted []string) ([]Sheet, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening workbook archive: %w", err)
	}

	entries, err := readWorkbook(zr)
	if err != nil {
		return nil, err
	}

	rels, err := readRelationships(zr)
	if err != nil {
		return nil, err
	}

	shared, err := readSharedStrings(zr)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]sheetEntry, len(entries))
	for _, entry := range entries {
		byName[entry.Name] = entry
	}

	selected := entries
	if len(wanted) > 0 {
		selected = selected[:0:0]
		for _, name := range wanted {
			entry, ok := byName[name]
			if !ok {
				return nil, &MissingSheetError{Name: name}
			}
			selected = append(selected, entry)
		}
	}

	sheets := make([]Sheet, 0, len(selected))
	for _, entry := range selected {
		target, ok := rels[entry.RelID]
		if !ok {
			return nil, fmt.Errorf("sheet %q has no relationship target", entry.Name)
		}
		rows, err := readSheetData(zr, target, shared)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", entry.Name, err)
		}
		sheets = append(sheets, Sheet{Name: entry.Name, Rows: rows})
	}

	return sheets, nil
}

type sheetEntry struct {
	Name  string
	RelID string
}

type xmlWorkbook struct {
	Sheets struct {
		Sheet []struct {
			Name string `xml:"name,attr"`
			ID   string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
		} `xml:"sheet"`
	} `xml:"sheets"`
}

func readWorkbook(zr *zip.Reader) ([]sheetEntry, error) {
	data, err := readPart(zr, "xl/workbook.xml")
	if err != nil {
		return nil, fmt.Errorf("reading workbook part: %w", err)
	}

	var wb xmlWorkbook
	if err := xml.Unmarshal(data, &wb); err != nil {
		return nil, fmt.Errorf("parsing workbook part: %w", err)
	}

	entries := make([]sheetEntry, 0, len(wb.Sheets.Sheet))
	for _, sheet := range wb.Sheets.Sheet {
		entries = append(entries, sheetEntry{Name: sheet.Name, RelID: sheet.ID})
	}
	return entries, nil
}

type xmlRelationships struct {
	Relationship []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// readRelationships maps relationship ids to sheet part paths inside the
// archive. Targets are stored relative to xl/.
func readRelationships(zr *zip.Reader) (map[string]string, error) {
	data, err := readPart(zr, "xl/_rels/workbook.xml.rels")
	if err != nil {
		return nil, fmt.Errorf("reading workbook relationships: %w", err)
	}

	var rels xmlRelationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("parsing workbook relationships: %w", err)
	}

	out := make(map[string]string, len(rels.Relationship))
	for _, rel := range rels.Relationship {
		target := rel.Target
		if strings.HasPrefix(target, "/") {
			target = strings.TrimPrefix(target, "/")
		} else {
			target = "xl/" + target
		}
		out[rel.ID] = target
	}
	return out, nil
}

type xmlSST struct {
	SI []struct {
		T string `xml:"t"`
		R []struct {
			T string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

// readSharedStrings loads the shared string table. The part is optional;
// workbooks without string cells may omit it.
func readSharedStrings(zr *zip.Reader) ([]string, error) {
	data, err := readPart(zr, "xl/sharedStrings.xml")
	if err != nil {
		return nil, nil
	}

	var sst xmlSST
	if err := xml.Unmarshal(data, &sst); err != nil {
		return nil, fmt.Errorf("parsing shared strings: %w", err)
	}

	strs := make([]string, 0, len(sst.SI))
	for _, si := range sst.SI {
		if len(si.R) > 0 {
			var sb strings.Builder
			for _, run := range si.R {
				sb.WriteString(run.T)
			}
			strs = append(strs, sb.String())
			continue
		}
		strs = append(strs, si.T)
	}
	return strs, nil
}

type xmlWorksheet struct {
	SheetData struct {
		Row []struct {
			C []xmlCell `xml:"c"`
		} `xml:"row"`
	} `xml:"sheetData"`
}

type xmlCell struct {
	R  string `xml:"r,attr"` // cell reference, e.g. "B3"
	T  string `xml:"t,attr"` // cell type
	V  string `xml:"v"`      // value
	IS struct {
		T string `xml:"t"`
	} `xml:"is"` // inline string
}

func readSheetData(zr *zip.Reader, part string, shared []string) ([][]Cell, error) {
	data, err := readPart(zr, part)
	if err != nil {
		return nil, err
	}

	var ws xmlWorksheet
	if err := xml.Unmarshal(data, &ws); err != nil {
		return nil, err
	}

	rows := make([][]Cell, 0, len(ws.SheetData.Row))
	for _, row := range ws.SheetData.Row {
		cells := []Cell{}
		for _, c := range row.C {
			col := columnIndex(c.R)
			if col < 0 {
				col = len(cells)
			}
			for len(cells) <= col {
				cells = append(cells, Cell{Kind: CellEmpty})
			}
			cells[col] = decodeCell(c, shared)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func decodeCell(c xmlCell, shared []string) Cell {
	switch c.T {
	case "s":
		idx, err := strconv.Atoi(c.V)
		if err != nil || idx < 0 || idx >= len(shared) {
			return Cell{Kind: CellEmpty}
		}
		return Cell{Kind: CellString, Str: shared[idx]}
	case "str":
		return Cell{Kind: CellString, Str: c.V}
	case "inlineStr":
		return Cell{Kind: CellString, Str: c.IS.T}
	case "b":
		return Cell{Kind: CellBool, Bool: c.V == "1" || strings.EqualFold(c.V, "true")}
	default:
		if c.V == "" {
			return Cell{Kind: CellEmpty}
		}
		// Numeric literal without a decimal point or exponent stays an
		// integer; everything else becomes a float.
		if !strings.ContainsAny(c.V, ".eE") {
			if n, err := strconv.ParseInt(c.V, 10, 64); err == nil {
				return Cell{Kind: CellInt, Int: n}
			}
		}
		if f, err := strconv.ParseFloat(c.V, 64); err == nil {
			return Cell{Kind: CellFloat, Float: f}
		}
		return Cell{Kind: CellString, Str: c.V}
	}
}

// columnIndex extracts the zero-based column number from a cell reference
// like "B3". Returns -1 when the reference has no column letters.
func columnIndex(ref string) int {
	n := 0
	seen := false
	for i := 0; i < len(ref); i++ {
		ch := ref[i]
		if ch >= 'A' && ch <= 'Z' {
			n = n*26 + int(ch-'A'+1)
			seen = true
			continue
		}
		break
	}
	if !seen {
		return -1
	}
	return n - 1
}

func readPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("missing part %s", name)
}
