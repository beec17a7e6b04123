package insurer

import (
	"regexp"
	"strconv"
	"strings"
)

var sixDigitsRe = regexp.MustCompile(`^\d{6}`)

// BirthDate derives DD.MM.YYYY from a national ID. Slashes are ignored. Years
// 50-99 map to the 1900s, 00-49 to the 2000s. The month digits are copied as
// written, so the +50 offset used for women is kept ("9055128899" gives
// "12.55.1990"). IDs not starting with six digits give "".
func BirthDate(nationalID string) string {
	id := strings.ReplaceAll(strings.TrimSpace(nationalID), "/", "")
	if !sixDigitsRe.MatchString(id) {
		return ""
	}
	year, err := strconv.Atoi(id[:2])
	if err != nil {
		return ""
	}
	if year >= 50 {
		year += 1900
	} else {
		year += 2000
	}
	return id[4:6] + "." + id[2:4] + "." + strconv.Itoa(year)
}
