package security

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateResetCodeRange(t *testing.T) {
	for i := 0; i < 10000; i++ {
		code, err := GenerateResetCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		require.True(t, IsResetCodeFormat(code), code)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
	}
}

func TestIsResetCodeFormat(t *testing.T) {
	cases := map[string]bool{
		"123456":  true,
		"999999":  true,
		"012345":  false,
		"12345":   false,
		"1234567": false,
		"12a456":  false,
		"":        false,
		" 12345":  false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsResetCodeFormat(in), in)
	}
}

func TestMaskResetCode(t *testing.T) {
	assert.Equal(t, "****56", MaskResetCode("123456"))
	assert.Equal(t, "******", MaskResetCode("1"))
}
