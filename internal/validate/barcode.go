package validate

import "errors"

// ErrInvalidBarcode is returned for codes that cannot be looked up.
var ErrInvalidBarcode = errors.New("invalid barcode")

const minBarcodeLength = 3

// Barcode checks code and returns ErrInvalidBarcode when it is rejected.
func Barcode(code string, strict bool) error {
	if !ValidBarcode(code, strict) {
		return ErrInvalidBarcode
	}
	return nil
}

// ValidBarcode reports whether code is made of digits only and has at least
// three of them. In strict mode only GS1 lengths (8, 12, 13, 14) with a
// correct check digit are accepted.
func ValidBarcode(code string, strict bool) bool {
	if len(code) < minBarcodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	if !strict {
		return true
	}
	switch len(code) {
	case 8, 12, 13, 14:
		return gs1CheckDigit(code[:len(code)-1]) == code[len(code)-1]-'0'
	default:
		return false
	}
}

// gs1CheckDigit computes the mod-10 check digit over body. Weights alternate
// 3,1 starting from the rightmost digit.
func gs1CheckDigit(body string) byte {
	sum := 0
	weight := 3
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * weight
		weight = 4 - weight
	}
	return byte((10 - sum%10) % 10)
}
