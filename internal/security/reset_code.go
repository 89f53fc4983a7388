package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
)

const (
	resetCodeMin = 100000
	resetCodeMax = 999999
)

var resetCodeSpan = big.NewInt(resetCodeMax - resetCodeMin + 1)

// GenerateResetCode draws a six digit code uniformly from [100000, 999999].
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, resetCodeSpan)
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+resetCodeMin, 10), nil
}

// IsResetCodeFormat reports whether s is exactly six ASCII digits with no
// leading zero.
func IsResetCodeFormat(s string) bool {
	if len(s) != 6 || s[0] == '0' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MaskResetCode keeps the last two digits for log correlation.
func MaskResetCode(code string) string {
	if len(code) <= 2 {
		return "******"
	}
	return "****" + code[len(code)-2:]
}
