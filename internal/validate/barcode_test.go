package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidBarcode(t *testing.T) {
	tests := []struct {
		code   string
		lax    bool
		strict bool
	}{
		{"", false, false},
		{"12", false, false},
		{"123", true, false},
		{"3017620422003", true, true},  // EAN-13
		{"3017620422004", true, false}, // wrong check digit
		{"4006381333931", true, true},
		{"96385074", true, true},       // EAN-8
		{"036000291452", true, true},   // UPC-A
		{"10012345678902", true, true}, // GTIN-14
		{"12345", true, false},
		{"30176204220a3", false, false},
		{" 3017620422003", false, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.lax, ValidBarcode(tc.code, false), "lax %q", tc.code)
		assert.Equal(t, tc.strict, ValidBarcode(tc.code, true), "strict %q", tc.code)
	}
}

func TestBarcode_Error(t *testing.T) {
	assert.ErrorIs(t, Barcode("ab", false), ErrInvalidBarcode)
	assert.NoError(t, Barcode("123", false))
}
