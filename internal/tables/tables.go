// Package tables parses HTML <table> elements into a structural model
// with section awareness, colspan/rowspan occupancy, multi-level
// headers and bounded nested-table recursion, generalized from the
// goquery-based DOM traversal the teacher's extraction pipeline uses
// elsewhere (internal/crawlers content extraction) applied to the
// table-specific spec this module covers.
package tables

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxNestingDepth is the recursion bound spec §4.14 calls for.
const DefaultMaxNestingDepth = 3

// CellPosition is one grid cell a spanning TableCell occupies beyond its
// own origin.
type CellPosition struct {
	Row int
	Col int
}

// TableCell is a single <td>/<th> with its declared spans and the grid
// positions it occupies beyond its own origin.
type TableCell struct {
	Text      string
	IsHeader  bool
	Row       int
	Col       int
	Colspan   int
	Rowspan   int
	Positions []CellPosition
}

// TableRow is one row of cells, tagged with which section it came from.
type TableRow struct {
	Cells   []TableCell
	Section string // "thead" | "tbody" | "tfoot"
}

// Summary is the structural summary spec §4.14 requires.
type Summary struct {
	TotalRows           int
	TotalColumns         int
	HeaderRowCount       int
	MaxColspan           int
	MaxRowspan           int
	HasComplexStructure bool
}

// Table is one parsed <table>, with nested tables extracted separately
// and referenced by id.
type Table struct {
	ID            string
	Rows          []TableRow
	HeaderLevels  [][]TableCell // consecutive thead rows; last is the main header row
	ColumnGroups  []ColumnGroup
	Summary       Summary
	NestedTableIDs []string
}

// ColumnGroup is one <col>/<colgroup> entry.
type ColumnGroup struct {
	Span  int
	Class string
}

// ParseResult is everything Parse extracts from a document: every table
// found, flattened, with nested tables as independent entries.
type ParseResult struct {
	Tables []*Table
}

// Parse walks html for every top-level <table> and parses it (and any
// tables nested within, up to maxDepth) into a flat ParseResult.
func Parse(html string, maxDepth int) (*ParseResult, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxNestingDepth
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing table HTML: %w", err)
	}

	result := &ParseResult{}
	idByNode := make(map[interface{}]string)
	seq := 0

	doc.Find("table").Each(func(_ int, tableSel *goquery.Selection) {
		depth := tableSel.ParentsFiltered("table").Length()
		if depth > maxDepth {
			return // recursion bound exceeded; pathological nesting is dropped
		}
		seq++
		id := fmt.Sprintf("table-%d", seq)
		idByNode[tableSel.Nodes[0]] = id
		table := parseOneTable(tableSel, id)
		result.Tables = append(result.Tables, table)
	})

	// Link each nested table back to its nearest table ancestor now that
	// every table has an assigned id.
	byID := make(map[string]*Table, len(result.Tables))
	for _, t := range result.Tables {
		byID[t.ID] = t
	}
	doc.Find("table").Each(func(_ int, tableSel *goquery.Selection) {
		id, ok := idByNode[tableSel.Nodes[0]]
		if !ok {
			return
		}
		parentSel := tableSel.ParentsFiltered("table").First()
		if parentSel.Length() == 0 {
			return
		}
		parentID, ok := idByNode[parentSel.Nodes[0]]
		if !ok {
			return
		}
		if parent, ok := byID[parentID]; ok {
			parent.NestedTableIDs = append(parent.NestedTableIDs, id)
			parent.Summary.HasComplexStructure = true
		}
	})

	return result, nil
}

func parseOneTable(tableSel *goquery.Selection, id string) *Table {
	table := &Table{ID: id}

	tableSel.Find("col, colgroup > col").Each(func(_ int, colSel *goquery.Selection) {
		span := 1
		if v, ok := colSel.Attr("span"); ok {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				span = n
			}
		}
		class, _ := colSel.Attr("class")
		table.ColumnGroups = append(table.ColumnGroups, ColumnGroup{Span: span, Class: class})
	})

	occupied := make(map[CellPosition]bool)
	rowIndex := 0

	appendRowsFromSection := func(sectionSel *goquery.Selection, sectionName string) {
		sectionSel.ChildrenFiltered("tr").Each(func(_ int, rowSel *goquery.Selection) {
			row := parseRow(rowSel, sectionName, rowIndex, occupied)
			table.Rows = append(table.Rows, row)
			rowIndex++
		})
	}

	hasExplicitHead := tableSel.ChildrenFiltered("thead").Length() > 0
	tableSel.ChildrenFiltered("thead").Each(func(_ int, sel *goquery.Selection) {
		appendRowsFromSection(sel, "thead")
	})
	tableSel.ChildrenFiltered("tbody").Each(func(_ int, sel *goquery.Selection) {
		appendRowsFromSection(sel, "tbody")
	})
	if tableSel.ChildrenFiltered("thead, tbody, tfoot").Length() == 0 {
		// rows discovered outside any section are treated as body
		appendRowsFromSection(tableSel, "tbody")
	}
	tableSel.ChildrenFiltered("tfoot").Each(func(_ int, sel *goquery.Selection) {
		appendRowsFromSection(sel, "tfoot")
	})

	if !hasExplicitHead && len(table.Rows) > 0 && rowHasHeaderCell(table.Rows[0]) {
		table.Rows[0].Section = "thead"
	}

	for _, row := range table.Rows {
		if row.Section == "thead" {
			table.HeaderLevels = append(table.HeaderLevels, row.Cells)
		}
	}

	table.Summary = summarize(table)
	return table
}

func rowHasHeaderCell(row TableRow) bool {
	for _, c := range row.Cells {
		if c.IsHeader {
			return true
		}
	}
	return false
}

func parseRow(rowSel *goquery.Selection, section string, rowIdx int, occupied map[CellPosition]bool) TableRow {
	row := TableRow{Section: section}
	col := 0
	rowSel.ChildrenFiltered("td, th").Each(func(_ int, cellSel *goquery.Selection) {
		for occupied[CellPosition{Row: rowIdx, Col: col}] {
			col++
		}
		colspan := attrInt(cellSel, "colspan", 1)
		rowspan := attrInt(cellSel, "rowspan", 1)
		isHeader := goquery.NodeName(cellSel) == "th"

		cell := TableCell{
			Text:     strings.TrimSpace(cellSel.Text()),
			IsHeader: isHeader,
			Row:      rowIdx,
			Col:      col,
			Colspan:  colspan,
			Rowspan:  rowspan,
		}
		for r := rowIdx; r < rowIdx+rowspan; r++ {
			for c := col; c < col+colspan; c++ {
				pos := CellPosition{Row: r, Col: c}
				occupied[pos] = true
				if r != rowIdx || c != col {
					cell.Positions = append(cell.Positions, pos)
				}
			}
		}
		row.Cells = append(row.Cells, cell)
		col += colspan
	})
	return row
}

func attrInt(sel *goquery.Selection, name string, fallback int) int {
	v, ok := sel.Attr(name)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func summarize(table *Table) Summary {
	s := Summary{
		TotalRows:      len(table.Rows),
		HeaderRowCount: len(table.HeaderLevels),
	}
	maxCol := 0
	for _, row := range table.Rows {
		col := 0
		for _, cell := range row.Cells {
			col += cell.Colspan
			if cell.Colspan > s.MaxColspan {
				s.MaxColspan = cell.Colspan
			}
			if cell.Rowspan > s.MaxRowspan {
				s.MaxRowspan = cell.Rowspan
			}
		}
		if col > maxCol {
			maxCol = col
		}
	}
	s.TotalColumns = maxCol
	s.HasComplexStructure = s.MaxColspan > 1 || s.MaxRowspan > 1 || s.HeaderRowCount > 1 || len(table.NestedTableIDs) > 0
	return s
}
