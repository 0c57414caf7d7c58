// Package report filters and aggregates transaction lists. Filter is a
// pure function; it never mutates its input.
package report

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"elevate-rewards/internal/domain"
)

// Scope selects the filter rule set. Admin scope adds the product, cpf
// and amount-range predicates unavailable to self-service callers.
type Scope string

const (
	ScopeUser  Scope = "user"
	ScopeAdmin Scope = "admin"
)

// Params are raw query values. Unparseable dates and amounts disable
// that predicate rather than failing the request.
type Params struct {
	Status    string `form:"status"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	Product   string `form:"product"`
	CPF       string `form:"cpf"`
	MinAmount string `form:"minAmount"`
	MaxAmount string `form:"maxAmount"`
}

// Filter applies the params over the list and returns a new slice
// sorted by transaction date, newest first. A nil params returns
// everything, still sorted.
func Filter(list []domain.Transaction, p *Params, scope Scope) []domain.Transaction {
	out := make([]domain.Transaction, len(list))
	copy(out, list)

	if p != nil {
		out = filterStatus(out, p.Status)
		out = filterDateRange(out, p.StartDate, p.EndDate)
		if scope == ScopeAdmin {
			out = filterProduct(out, p.Product)
			out = filterCPF(out, p.CPF)
			out = filterAmount(out, p.MinAmount, p.MaxAmount)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TransactionDate.After(out[j].TransactionDate)
	})
	return out
}

// WalletTotal sums points over approved entries only.
func WalletTotal(list []domain.Transaction) int64 {
	var total int64
	for _, t := range list {
		if t.Status == domain.StatusApproved {
			total += t.Points
		}
	}
	return total
}

func filterStatus(list []domain.Transaction, status string) []domain.Transaction {
	status = strings.TrimSpace(status)
	if status == "" {
		return list
	}
	return keep(list, func(t domain.Transaction) bool {
		return string(t.Status) == status
	})
}

// filterDateRange keeps entries between start-of-day of startDate and
// end-of-day of endDate, inclusive. Either bound may be absent or
// unparseable, in which case that side is open.
func filterDateRange(list []domain.Transaction, startDate, endDate string) []domain.Transaction {
	start, okStart := parseDay(startDate)
	end, okEnd := parseDay(endDate)
	if !okStart && !okEnd {
		return list
	}
	var endNext time.Time
	if okEnd {
		endNext = end.AddDate(0, 0, 1)
	}
	return keep(list, func(t domain.Transaction) bool {
		if okStart && t.TransactionDate.Before(start) {
			return false
		}
		if okEnd && !t.TransactionDate.Before(endNext) {
			return false
		}
		return true
	})
}

func filterProduct(list []domain.Transaction, product string) []domain.Transaction {
	needle := strings.ToLower(strings.TrimSpace(product))
	if needle == "" {
		return list
	}
	return keep(list, func(t domain.Transaction) bool {
		return strings.Contains(strings.ToLower(t.Description), needle)
	})
}

func filterCPF(list []domain.Transaction, cpf string) []domain.Transaction {
	needle := digitsOnly(cpf)
	if needle == "" {
		return list
	}
	return keep(list, func(t domain.Transaction) bool {
		return strings.Contains(digitsOnly(t.CPF), needle)
	})
}

func filterAmount(list []domain.Transaction, minRaw, maxRaw string) []domain.Transaction {
	min, okMin := parseAmount(minRaw)
	max, okMax := parseAmount(maxRaw)
	if !okMin && !okMax {
		return list
	}
	return keep(list, func(t domain.Transaction) bool {
		if okMin && t.Amount < min {
			return false
		}
		if okMax && t.Amount > max {
			return false
		}
		return true
	})
}

func keep(list []domain.Transaction, pred func(domain.Transaction) bool) []domain.Transaction {
	out := list[:0]
	for _, t := range list {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}

// parseDay reads a calendar date as UTC midnight. Date-only values are
// the normal case; a full timestamp is accepted and truncated.
func parseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Truncate(24 * time.Hour), true
	}
	return time.Time{}, false
}

func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
