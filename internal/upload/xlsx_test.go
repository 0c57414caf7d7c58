package upload

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]string) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, addr, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

var statementHeader = []string{colCPF, colDescription, colDate, colPoints, colAmount, colStatus}

func TestParseStatement(t *testing.T) {
	t.Parallel()
	r := buildWorkbook(t, [][]string{
		statementHeader,
		{"123.456.789-09", "Compra em loja parceira", "15-03-2026", "320", "1.250,50", "Aprovado"},
		{"111.444.777-35", "Campanha de indicação", "02/01/2026", "90", "225.00", "Em avaliação"},
	})

	rows, skipped, err := ParseStatement(r)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, rows, 2)

	assert.Equal(t, "123.456.789-09", rows[0].CPF)
	assert.Equal(t, "Compra em loja parceira", rows[0].Description)
	assert.True(t, rows[0].Date.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(320), rows[0].Points)
	assert.Equal(t, 1250.50, rows[0].Amount)
	assert.Equal(t, "Aprovado", rows[0].Status)

	assert.True(t, rows[1].Date.Equal(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 225.0, rows[1].Amount)
}

func TestParseStatementSkipsBadRows(t *testing.T) {
	t.Parallel()
	r := buildWorkbook(t, [][]string{
		statementHeader,
		{"111.111.111-11", "CPF repetido", "15-03-2026", "100", "250,00", "Aprovado"},
		{"123.456.789-09", "Data quebrada", "sem data", "100", "250,00", "Aprovado"},
		{"123.456.789-09", "Linha boa", "15-03-2026", "100", "250,00", "Aprovado"},
		{"123.456.789-09", "Sem pontos", "15-03-2026", "", "250,00", "Aprovado"},
	})

	rows, skipped, err := ParseStatement(r)
	require.NoError(t, err)
	assert.Equal(t, 3, skipped)
	require.Len(t, rows, 1)
	assert.Equal(t, "Linha boa", rows[0].Description)
}

func TestParseStatementSkipsUnknownStatus(t *testing.T) {
	t.Parallel()
	r := buildWorkbook(t, [][]string{
		statementHeader,
		{"123.456.789-09", "Status de fora", "15-03-2026", "100", "250,00", "Pendente"},
		{"123.456.789-09", "Status vazio", "15-03-2026", "100", "250,00", ""},
		{"123.456.789-09", "Linha boa", "15-03-2026", "100", "250,00", "Em avaliação"},
	})

	rows, skipped, err := ParseStatement(r)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, rows, 1)
	assert.Equal(t, "Em avaliação", rows[0].Status)
}

func TestParseStatementMissingHeader(t *testing.T) {
	t.Parallel()
	r := buildWorkbook(t, [][]string{
		{"Coluna A", "Coluna B"},
		{"x", "y"},
	})

	_, _, err := ParseStatement(r)
	assert.ErrorIs(t, err, ErrEmptySheet)
}

func TestParseStatementNotAWorkbook(t *testing.T) {
	t.Parallel()
	_, _, err := ParseStatement(bytes.NewReader([]byte("plain text, not xlsx")))
	assert.Error(t, err)
}

func TestParseDecimalFormats(t *testing.T) {
	t.Parallel()
	cases := map[string]float64{
		"1.234,56": 1234.56,
		"1234.56":  1234.56,
		"250,00":   250,
		"90":       90,
	}
	for in, want := range cases {
		got, ok := parseDecimal(in)
		assert.True(t, ok, "parse %q", in)
		assert.Equal(t, want, got, "parse %q", in)
	}
	_, ok := parseDecimal("")
	assert.False(t, ok)
	_, ok = parseDecimal("abc")
	assert.False(t, ok)
}
