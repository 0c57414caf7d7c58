package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigitsOnly(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "12345678909", DigitsOnly("123.456.789-09"))
	assert.Equal(t, "12345678909", DigitsOnly("12345678909"))
	assert.Equal(t, "", DigitsOnly("abc-./"))
	assert.Equal(t, "", DigitsOnly(""))
}

func TestValidCPF(t *testing.T) {
	t.Parallel()

	valid := []string{
		"123.456.789-09",
		"12345678909",
		"111.444.777-35",
	}
	for _, s := range valid {
		assert.True(t, ValidCPF(s), "expected %q to be valid", s)
	}

	invalid := []string{
		"",
		"123",
		"123.456.789-00",  // wrong check digits
		"111.111.111-11",  // repeated digit
		"000.000.000-00",  // repeated digit
		"123.456.789-091", // too long
	}
	for _, s := range invalid {
		assert.False(t, ValidCPF(s), "expected %q to be invalid", s)
	}
}
