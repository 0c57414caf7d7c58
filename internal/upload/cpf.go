package upload

import "strings"

// DigitsOnly strips everything but 0-9 from a CPF, matching how the
// spreadsheets format them ("123.456.789-09").
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCPF verifies the two mod-11 check digits of a Brazilian CPF.
// Sequences of a single repeated digit are rejected, as registrars do.
func ValidCPF(s string) bool {
	digits := DigitsOnly(s)
	if len(digits) != 11 {
		return false
	}
	allSame := true
	for i := 1; i < 11; i++ {
		if digits[i] != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	d := make([]int, 11)
	for i := 0; i < 11; i++ {
		d[i] = int(digits[i] - '0')
	}
	if checkDigit(d, 9) != d[9] {
		return false
	}
	return checkDigit(d, 10) == d[10]
}

// checkDigit computes the verifier over the first n digits with
// weights n+1 down to 2.
func checkDigit(d []int, n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += d[i] * (n + 1 - i)
	}
	r := (sum * 10) % 11
	if r == 10 {
		r = 0
	}
	return r
}
