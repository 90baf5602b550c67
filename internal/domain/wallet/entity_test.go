package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidAddress(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   string
		want bool
	}{
		{name: "program id", in: "3DdKqVj9wA3q56crthydc4ccEi6EbHk6afmdsHPC8nhz", want: true},
		{name: "system program", in: "11111111111111111111111111111111", want: true},
		{name: "empty", in: "", want: false},
		{name: "too short", in: "abc", want: false},
		{name: "zero is not base58", in: "0DdKqVj9wA3q56crthydc4ccEi6EbHk6afmdsHPC8nhz", want: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, IsValidAddress(tc.in))
		})
	}
}
