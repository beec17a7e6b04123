package insurer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/offers-tracker/internal/insurer"
)

func TestBirthDate(t *testing.T) {
	cases := []struct {
		id   string
		want string
	}{
		{"9055128899", "12.55.1990"},
		{"905512/8899", "12.55.1990"},
		{"5001011234", "01.01.1950"},
		{"4912311234", "31.12.2049"},
		{"0101015555", "01.01.2000"},
		{"850315123", "15.03.1985"},
		{"12345", ""},
		{"AB1234567", ""},
		{"", ""},
	}
	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			assert.Equal(t, tc.want, insurer.BirthDate(tc.id))
		})
	}
}
