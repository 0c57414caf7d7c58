// Package upload reads the transaction spreadsheets administrators
// submit. Sheets carry Portuguese headers; rows with an invalid CPF or
// missing required cells are skipped, not errors — partner exports are
// messy and one bad line must not sink the batch.
package upload

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"elevate-rewards/internal/domain"
)

// Expected column headers, first row of the first sheet.
const (
	colCPF         = "CPF"
	colDescription = "Descrição da transação"
	colDate        = "Data da transação"
	colPoints      = "Valor em pontos"
	colAmount      = "Valor"
	colStatus      = "Status"
)

var ErrEmptySheet = errors.New("planilha vazia ou sem cabeçalho")

// A status outside the ledger enum would persist but match no filter
// and never count toward a wallet, so such rows are skipped.
var knownStatuses = map[string]struct{}{
	string(domain.StatusApproved): {},
	string(domain.StatusRejected): {},
	string(domain.StatusPending):  {},
}

// Row is one parsed statement line.
type Row struct {
	CPF         string
	Description string
	Date        time.Time
	Points      int64
	Amount      float64
	Status      string
}

// ParseStatement reads the first sheet of an xlsx workbook.
// Returned rows have a well-formed, check-digit-valid CPF; skipped is
// how many lines were dropped.
func ParseStatement(r io.Reader) (rows []Row, skipped int, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, ErrEmptySheet
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, 0, err
	}
	if len(raw) < 1 {
		return nil, 0, ErrEmptySheet
	}

	idx := headerIndex(raw[0])
	if _, ok := idx[colCPF]; !ok {
		return nil, 0, ErrEmptySheet
	}

	for _, line := range raw[1:] {
		row, ok := parseLine(line, idx)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func cell(line []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(line) {
		return ""
	}
	return strings.TrimSpace(line[i])
}

func parseLine(line []string, idx map[string]int) (Row, bool) {
	cpf := cell(line, idx, colCPF)
	if !ValidCPF(cpf) {
		return Row{}, false
	}
	date, ok := parseDate(cell(line, idx, colDate))
	if !ok {
		return Row{}, false
	}
	points, ok := parsePoints(cell(line, idx, colPoints))
	if !ok {
		return Row{}, false
	}
	amount, ok := parseDecimal(cell(line, idx, colAmount))
	if !ok {
		return Row{}, false
	}
	status := cell(line, idx, colStatus)
	if _, ok := knownStatuses[status]; !ok {
		return Row{}, false
	}
	return Row{
		CPF:         cpf,
		Description: cell(line, idx, colDescription),
		Date:        date,
		Points:      points,
		Amount:      amount,
		Status:      status,
	}, true
}

// parseDate accepts the export format dd-mm-yyyy, plus dd/mm/yyyy and
// ISO dates, since partners disagree on formatting.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{"02-01-2006", "02/01/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parsePoints(s string) (int64, bool) {
	digits := DigitsOnly(s)
	if digits == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseDecimal reads "1.234,56" (pt-BR) as well as "1234.56".
func parseDecimal(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
