package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleTableWithExplicitSections(t *testing.T) {
	html := `
<table>
  <thead><tr><th>Name</th><th>Age</th></tr></thead>
  <tbody>
    <tr><td>Alice</td><td>30</td></tr>
    <tr><td>Bob</td><td>25</td></tr>
  </tbody>
</table>`

	result, err := Parse(html, 0)
	require.NoError(t, err)
	require.Len(t, result.Tables, 1)

	tbl := result.Tables[0]
	assert.Equal(t, 3, tbl.Summary.TotalRows)
	assert.Equal(t, 2, tbl.Summary.TotalColumns)
	assert.Equal(t, 1, tbl.Summary.HeaderRowCount)
	assert.False(t, tbl.Summary.HasComplexStructure)
	assert.Equal(t, "Name", tbl.Rows[0].Cells[0].Text)
	assert.Equal(t, "Alice", tbl.Rows[1].Cells[0].Text)
}

func TestParseInfersHeaderRowWithoutTheadSection(t *testing.T) {
	html := `
<table>
  <tr><th>Col A</th><th>Col B</th></tr>
  <tr><td>1</td><td>2</td></tr>
</table>`

	result, err := Parse(html, 0)
	require.NoError(t, err)
	require.Len(t, result.Tables, 1)
	assert.Equal(t, "thead", result.Tables[0].Rows[0].Section)
	assert.Equal(t, "tbody", result.Tables[0].Rows[1].Section)
}

func TestParseHandlesColspanAndRowspan(t *testing.T) {
	html := `
<table>
  <tr><td colspan="2">Spans two</td><td rowspan="2">Spans down</td></tr>
  <tr><td>A</td><td>B</td></tr>
</table>`

	result, err := Parse(html, 0)
	require.NoError(t, err)
	tbl := result.Tables[0]

	spanCell := tbl.Rows[0].Cells[0]
	assert.Equal(t, 2, spanCell.Colspan)
	assert.Len(t, spanCell.Positions, 1, "a colspan=2 cell occupies exactly one position beyond its origin")

	rowspanCell := tbl.Rows[0].Cells[1]
	assert.Equal(t, 2, rowspanCell.Rowspan)
	assert.True(t, tbl.Summary.HasComplexStructure)

	// The second row's first cell must land in column 0: the rowspan cell
	// only takes column 2 of row 1, leaving columns 0 and 1 free.
	assert.Equal(t, 0, tbl.Rows[1].Cells[0].Col)
}

func TestParseMultiLevelHeaders(t *testing.T) {
	html := `
<table>
  <thead>
    <tr><th colspan="2">Group</th></tr>
    <tr><th>A</th><th>B</th></tr>
  </thead>
  <tbody><tr><td>1</td><td>2</td></tr></tbody>
</table>`

	result, err := Parse(html, 0)
	require.NoError(t, err)
	tbl := result.Tables[0]
	require.Len(t, tbl.HeaderLevels, 2)
	assert.Equal(t, "Group", tbl.HeaderLevels[0][0].Text)
	assert.Equal(t, "A", tbl.HeaderLevels[1][0].Text)
}

func TestParseColumnGroups(t *testing.T) {
	html := `
<table>
  <colgroup><col span="2" class="wide"></colgroup>
  <tr><td>1</td><td>2</td></tr>
</table>`

	result, err := Parse(html, 0)
	require.NoError(t, err)
	require.Len(t, result.Tables[0].ColumnGroups, 1)
	assert.Equal(t, 2, result.Tables[0].ColumnGroups[0].Span)
}

func TestParseNestedTablesProduceSeparateEntries(t *testing.T) {
	html := `
<table>
  <tr><td>Outer
    <table><tr><td>Inner</td></tr></table>
  </td></tr>
</table>`

	result, err := Parse(html, DefaultMaxNestingDepth)
	require.NoError(t, err)
	require.Len(t, result.Tables, 2)

	var outer *Table
	for _, tbl := range result.Tables {
		if len(tbl.NestedTableIDs) > 0 {
			outer = tbl
		}
	}
	require.NotNil(t, outer, "outer table must reference its nested table id")
	assert.True(t, outer.Summary.HasComplexStructure)
}

func TestParseRespectsMaxNestingDepth(t *testing.T) {
	html := `
<table><tr><td>
  <table><tr><td>
    <table><tr><td>too deep</td></tr></table>
  </td></tr></table>
</td></tr></table>`

	result, err := Parse(html, 1)
	require.NoError(t, err)
	assert.Len(t, result.Tables, 2, "only the outer table and its direct child should survive a maxDepth of 1")
}
