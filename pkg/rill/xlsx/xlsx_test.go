package xlsx

import (
	"archive/zip"
	"bytes"
	"testing"
)

const workbookXML = `<?xml version="1.0"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"
          xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheets>
    <sheet name="Sales" sheetId="1" r:id="rId1"/>
    <sheet name="Notes" sheetId="2" r:id="rId2"/>
  </sheets>
</workbook>`

const relsXML = `<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet2.xml"/>
</Relationships>`

const sharedStringsXML = `<?xml version="1.0"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="3" uniqueCount="3">
  <si><t>apple</t></si>
  <si><t>banana</t></si>
  <si><r><t>multi</t></r><r><t> run</t></r></si>
</sst>`

const sheet1XML = `<?xml version="1.0"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <sheetData>
    <row r="1">
      <c r="A1" t="s"><v>0</v></c>
      <c r="B1"><v>42</v></c>
      <c r="C1"><v>3.5</v></c>
    </row>
    <row r="2">
      <c r="A2" t="s"><v>1</v></c>
      <c r="C2" t="b"><v>1</v></c>
    </row>
  </sheetData>
</worksheet>`

const sheet2XML = `<?xml version="1.0"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <sheetData>
    <row r="1">
      <c r="A1" t="s"><v>2</v></c>
      <c r="B1" t="inlineStr"><is><t>inline</t></is></c>
    </row>
  </sheetData>
</worksheet>`

func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := map[string]string{
		"xl/workbook.xml":             workbookXML,
		"xl/_rels/workbook.xml.rels":  relsXML,
		"xl/sharedStrings.xml":        sharedStringsXML,
		"xl/worksheets/sheet1.xml":    sheet1XML,
		"xl/worksheets/sheet2.xml":    sheet2XML,
		"[Content_Types].xml":         "<Types/>",
	}
	for name, body := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeAllSheets(t *testing.T) {
	sheets, err := Decode(buildWorkbook(t), nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(sheets) != 2 {
		t.Fatalf("wrong sheet count: %d", len(sheets))
	}
	if sheets[0].Name != "Sales" || sheets[1].Name != "Notes" {
		t.Errorf("wrong sheet names: %s, %s", sheets[0].Name, sheets[1].Name)
	}

	rows := sheets[0].Rows
	if len(rows) != 2 {
		t.Fatalf("wrong row count: %d", len(rows))
	}

	r0 := rows[0]
	if r0[0].Kind != CellString || r0[0].Str != "apple" {
		t.Errorf("A1: %+v", r0[0])
	}
	if r0[1].Kind != CellInt || r0[1].Int != 42 {
		t.Errorf("B1: %+v", r0[1])
	}
	if r0[2].Kind != CellFloat || r0[2].Float != 3.5 {
		t.Errorf("C1: %+v", r0[2])
	}

	// row 2 skips column B: the gap is an empty cell
	r1 := rows[1]
	if len(r1) != 3 {
		t.Fatalf("row 2 should be dense to column C, got %d cells", len(r1))
	}
	if r1[0].Kind != CellString || r1[0].Str != "banana" {
		t.Errorf("A2: %+v", r1[0])
	}
	if r1[1].Kind != CellEmpty {
		t.Errorf("B2 should be empty: %+v", r1[1])
	}
	if r1[2].Kind != CellBool || !r1[2].Bool {
		t.Errorf("C2: %+v", r1[2])
	}
}

func TestDecodeSheetFilter(t *testing.T) {
	sheets, err := Decode(buildWorkbook(t), []string{"Notes"})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(sheets) != 1 || sheets[0].Name != "Notes" {
		t.Fatalf("filter failed: %+v", sheets)
	}

	r0 := sheets[0].Rows[0]
	if r0[0].Kind != CellString || r0[0].Str != "multi run" {
		t.Errorf("shared string runs: %+v", r0[0])
	}
	if r0[1].Kind != CellString || r0[1].Str != "inline" {
		t.Errorf("inline string: %+v", r0[1])
	}
}

func TestDecodeMissingSheet(t *testing.T) {
	_, err := Decode(buildWorkbook(t), []string{"Ghost"})
	if err == nil {
		t.Fatal("expected error")
	}
	missing, ok := err.(*MissingSheetError)
	if !ok {
		t.Fatalf("wrong error type: %T", err)
	}
	if missing.Name != "Ghost" {
		t.Errorf("wrong sheet name: %s", missing.Name)
	}
}

func TestDecodeNotAZip(t *testing.T) {
	if _, err := Decode([]byte("not a workbook"), nil); err == nil {
		t.Fatal("expected error for junk input")
	}
}

func TestColumnIndex(t *testing.T) {
	tests := []struct {
		ref  string
		want int
	}{
		{"A1", 0},
		{"B3", 1},
		{"Z9", 25},
		{"AA1", 26},
		{"AB10", 27},
		{"", -1},
		{"12", -1},
	}
	for _, tt := range tests {
		if got := columnIndex(tt.ref); got != tt.want {
			t.Errorf("columnIndex(%q) = %d, want %d", tt.ref, got, tt.want)
		}
	}
}
