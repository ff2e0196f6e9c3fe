package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDecodeCSVTypesValues(t *testing.T) {
	in := "\ufeffdate,channel_note,impressions,spend,active,empty\n" +
		"2024-01-01,promo,1000,99.5,true,\n" +
		"\n" +
		"2024-01-02, NaN ,  12 ,1e2,FALSE,\n"
	rows, err := DecodeCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "2024-01-01", rows[0]["date"])
	assert.Equal(t, "promo", rows[0]["channel_note"])
	assert.Equal(t, 1000.0, rows[0]["impressions"])
	assert.Equal(t, 99.5, rows[0]["spend"])
	assert.Equal(t, true, rows[0]["active"])
	assert.Nil(t, rows[0]["empty"])
	assert.Contains(t, rows[0], "empty")

	assert.Equal(t, "NaN", rows[1]["channel_note"])
	assert.Equal(t, 12.0, rows[1]["impressions"])
	assert.Equal(t, 100.0, rows[1]["spend"])
	assert.Equal(t, false, rows[1]["active"])
}

func TestDecodeCSVSkipsBlankRows(t *testing.T) {
	rows, err := DecodeCSV(strings.NewReader("date,spend\n,\n2024-01-01,5\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestDecodeCSVRaggedRowFails(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader("date,spend\n2024-01-01,5,extra\n"))
	assert.Error(t, err)
}

func TestDecodeCSVEmptyInput(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingHeader)
}

func TestDecodeByExtension(t *testing.T) {
	_, err := Decode("data.json", strings.NewReader("{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	rows, err := Decode("Google.CSV", strings.NewReader("date\n2024-01-01\n"))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestDecodeXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"date", "orders", "total_revenue", "note"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"2024-01-01", 5, 500}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"2024-01-02", 3, 250.5, "late"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := Decode("Business.xlsx", &buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-01", rows[0]["date"])
	assert.Equal(t, 5.0, rows[0]["orders"])
	assert.Nil(t, rows[0]["note"])
	assert.Equal(t, 250.5, rows[1]["total_revenue"])
	assert.Equal(t, "late", rows[1]["note"])
}

func TestTyped(t *testing.T) {
	assert.Equal(t, 3.0, typed("3"))
	assert.Equal(t, -0.5, typed("-.5"))
	assert.Equal(t, "0x10", typed("0x10"))
	assert.Equal(t, "Inf", typed("Inf"))
	assert.Equal(t, "1,000", typed("1,000"))
	assert.Nil(t, typed("   "))
}
