package insurer

import "strings"

// detectionOrder is the canonical priority. Generali offers routinely mention
// Allianz or Kooperativa (comparisons, previous insurer) so Generali wins.
var detectionOrder = []struct {
	insurer Insurer
	tokens  []string
}{
	{Generali, []string{"generali", "česká podnikatelská"}},
	{Allianz, []string{"allianz"}},
	{Kooperativa, []string{"kooperativa"}},
}

// Detect returns the first insurer whose token occurs in text (case-insensitive).
func Detect(text string) Insurer {
	lower := strings.ToLower(text)
	for _, d := range detectionOrder {
		for _, tok := range d.tokens {
			if strings.Contains(lower, tok) {
				return d.insurer
			}
		}
	}
	return Unsupported
}
