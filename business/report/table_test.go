package report

import (
	"bytes"
	"pharmaSupply/domain"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleOrders() Table {
	return Table{
		Columns: []string{"id", "status", "total_price", "user_name"},
		Rows: []Row{
			{"id": "o1", "status": "PENDING", "total_price": decimal.RequireFromString("10.50"), "user_name": "Ana"},
			{"id": "o2", "status": "DELIVERED", "total_price": decimal.RequireFromString("40"), "user_name": "Budi"},
			{"id": "o3", "status": "PENDING", "total_price": decimal.RequireFromString("4.50"), "user_name": "Citra"},
		},
	}
}

func TestProject_KeepsRequestedKnownColumns(t *testing.T) {
	got := sampleOrders().Project([]string{"user_name", "missing", "id"})

	assert.Equal(t, []string{"user_name", "id"}, got.Columns)
	assert.Equal(t, Row{"user_name": "Ana", "id": "o1"}, got.Rows[0])
}

func TestProject_NoFieldsKeepsEverything(t *testing.T) {
	got := sampleOrders().Project(nil)
	assert.Len(t, got.Columns, 4)
}

func TestGroup_Aggregations(t *testing.T) {
	got := sampleOrders().Group([]string{"status"}, []domain.ReportAggregation{
		{Field: "total_price", Operation: "sum"},
		{Field: "id", Operation: "count"},
		{Field: "total_price", Operation: "avg"},
		{Field: "total_price", Operation: "max"},
	})

	assert.Equal(t, []string{"status", "total_price_sum", "id_count", "total_price_avg", "total_price_max"}, got.Columns)
	require.Len(t, got.Rows, 2)

	pending := got.Rows[0]
	assert.Equal(t, "PENDING", pending["status"])
	assert.InDelta(t, 15.0, pending["total_price_sum"], 1e-9)
	assert.Equal(t, int64(2), pending["id_count"])
	assert.InDelta(t, 7.5, pending["total_price_avg"], 1e-9)
	assert.InDelta(t, 10.5, pending["total_price_max"], 1e-9)

	assert.Equal(t, "DELIVERED", got.Rows[1]["status"])
}

func TestGroup_NonNumericAggregateIsNil(t *testing.T) {
	got := sampleOrders().Group([]string{"status"}, []domain.ReportAggregation{{Field: "user_name", Operation: "min"}})
	assert.Nil(t, got.Rows[0]["user_name_min"])
}

func TestSort_MultiKey(t *testing.T) {
	tbl := sampleOrders()
	tbl.Sort([]domain.ReportSort{{Field: "status", Direction: "desc"}, {Field: "total_price"}})

	var ids []string
	for _, r := range tbl.Rows {
		ids = append(ids, r["id"].(string))
	}
	assert.Equal(t, []string{"o3", "o1", "o2"}, ids)
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, domain.ReportCSV, sampleOrders(), time.Now()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "id,status,total_price,user_name", lines[0])
	assert.Equal(t, "o1,PENDING,10.5,Ana", lines[1])
}

func TestWrite_CSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, domain.ReportCSV, Table{Columns: []string{"id"}}, time.Now()))
	assert.Empty(t, buf.String())
}

func TestWrite_JSONEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, domain.ReportJSON, Table{}, time.Now()))
	assert.JSONEq(t, "[]", buf.String())
}

func TestWrite_Excel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, domain.ReportExcel, sampleOrders(), time.Now()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(excelSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "id", header)

	name, err := f.GetCellValue(excelSheet, "D3")
	require.NoError(t, err)
	assert.Equal(t, "Budi", name)
}

func TestWrite_PDF(t *testing.T) {
	tbl := Table{Columns: []string{"id"}}
	for i := 0; i < 60; i++ {
		tbl.Rows = append(tbl.Rows, Row{"id": strings.Repeat("x", 30)})
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, domain.ReportPDF, tbl, time.Now()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, domain.ReportFormat("XML"), Table{}, time.Now())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))
	assert.Len(t, []rune(truncate(strings.Repeat("é", 25))), pdfMaxCellLen)
}
