package insurer

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/offers-tracker/internal/record"
)

var (
	koopNameRe          = labelRe(`Titul, jméno, příjmení`)
	koopAddressRe       = labelRe(`Adresa bydliště`)
	koopPlateRe         = labelRe(`Registrační značka`)
	koopNationalIDRe    = regexp.MustCompile(`Rodné číslo\s+(\d{9,10})`)
	koopContractRe      = regexp.MustCompile(`Číslo pojistné smlouvy\s+(\d+)`)
	koopTenDigitsRe     = regexp.MustCompile(`\b(\d{10})\b`)
	koopVehiclePriceRe  = regexp.MustCompile(`Pojistná částka\s+(\d[\d \x{00A0}]*)`)
	koopMileageRe       = regexp.MustCompile(`Stav počítadla \(km\)\s+(\d[\d \x{00A0}]*)`)
	koopPolicyStartRe   = regexp.MustCompile(`Počátek pojištění\s+(\d{1,2}\.\s*\d{1,2}\.\s*\d{4})`)
	koopPremiumRe       = regexp.MustCompile(`Celkové roční pojistné\s+(\d[\d \x{00A0}]*)`)
	koopPhoneRe         = regexp.MustCompile(`Mobil\s+(\d{3} ?\d{3} ?\d{3})`)
	koopEmailRe         = regexp.MustCompile(`E[-–]?mail\s+([a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9.-]+)`)
	koopPersonTypeRe    = regexp.MustCompile(`Typ osoby\s+([^\n]+)`)
	koopSupplementalRe  = regexp.MustCompile(`(?s)Doplňková pojištění(.*?)(?:Roční pojistné|$)`)
	koopLiabilityRe     = regexp.MustCompile(`(?s)Limit.*?na zdraví.*?(\d+\s*mil\.\s*Kč).*?škodě.*?(\d+\s*mil\.\s*Kč)`)
	koopOwnerNameRe     = regexp.MustCompile(`Vlastník\s*\n\s*Název\s+([^\n]*)`)
	koopOwnerIDRe       = labelRe(`IČO`)
	koopOwnerVATRe      = labelRe(`Plátce DPH`)
	koopOwnerSectionRe  = regexp.MustCompile(`(?i)vlastník`)
	koopPostalCodeRe    = regexp.MustCompile(`\d{3} ?\d{2}`)
	koopSameAsHolder    = []string{"shodný s pojistníkem", "shodny s pojistnikem"}
)

// labelRe matches a label and captures the rest of its value line.
func labelRe(label string) *regexp.Regexp {
	return regexp.MustCompile(label + `\s+([^\n]*)`)
}

// KooperativaExtractor reads Kooperativa offers, a two-column layout where the
// value follows its label on the same line.
type KooperativaExtractor struct{}

func (KooperativaExtractor) Insurer() Insurer { return Kooperativa }

func (KooperativaExtractor) ApproximateFields() []record.Field { return nil }

func (KooperativaExtractor) Extract(text, filename string) record.Record {
	d := newDocument(text)
	b := record.NewBuilder(filename)

	b.Set(record.Name, d.find(koopNameRe))
	id := d.find(koopNationalIDRe)
	b.Set(record.NationalID, id)
	b.Set(record.BirthDate, BirthDate(id))
	b.Set(record.Address, koopAddress(d.find(koopAddressRe)))
	b.Set(record.ContractNumber, koopContract(d, id))
	if fields := strings.Fields(d.find(koopPlateRe)); len(fields) > 0 {
		b.Set(record.Plate, fields[0])
	}

	b.Set(record.VehiclePrice, digits(d.find(koopVehiclePriceRe)))
	b.Set(record.Mileage, digits(d.find(koopMileageRe)))
	b.Set(record.PolicyStart, d.find(koopPolicyStartRe))
	b.Set(record.Premium, digits(d.find(koopPremiumRe)))
	b.Set(record.Phone, d.find(koopPhoneRe))
	b.Set(record.Email, d.email(koopEmailRe))
	b.Set(record.HolderPersonType, d.find(koopPersonTypeRe))

	b.Set(record.Supplemental, koopSupplemental(d.text))
	b.Set(record.Comprehensive, yesNo(strings.Contains(d.text, "Havarijní pojištění") ||
		strings.Contains(d.text, "Doplatek na nové")))
	if m := koopLiabilityRe.FindStringSubmatch(d.text); m != nil {
		b.Set(record.LiabilityLimits, digits(m[1])+"/"+digits(m[2]))
	}

	b.Set(record.OperatorMatches, yesNo(koopSameAsHolderNear(d, "provozovatel")))
	owner := koopSameAsHolderNear(d, "vlastník")
	b.Set(record.OwnerMatches, yesNo(owner))
	if !owner {
		section := koopOwnerSection(d.text)
		b.Set(record.OwnerName, d.find(koopOwnerNameRe))
		b.Set(record.OwnerID, submatch(koopOwnerIDRe, section))
		b.Set(record.OwnerAddress, koopOwnerAddress(d.lines))
		b.Set(record.OwnerPersonType, submatch(koopPersonTypeRe, section))
		b.Set(record.OwnerVATPayer, submatch(koopOwnerVATRe, section))
	}

	return b.Build()
}

// koopAddress drops the phone column that sometimes follows the address.
func koopAddress(raw string) string {
	if i := strings.Index(raw, "Mobil"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimRight(strings.TrimSpace(raw), ", ")
}

// koopContract prefers the labelled contract number, then the first
// standalone ten-digit number that is not the national ID.
func koopContract(d *document, nationalID string) string {
	if v := d.find(koopContractRe); v != "" {
		return v
	}
	for _, m := range koopTenDigitsRe.FindAllStringSubmatch(d.text, -1) {
		if m[1] != nationalID {
			return m[1]
		}
	}
	return ""
}

// koopSameAsHolderNear reports whether a line mentioning role is followed,
// within the next four lines, by a "same as policyholder" phrase.
func koopSameAsHolderNear(d *document, role string) bool {
	lower := make([]string, len(d.lines))
	for i, l := range d.lines {
		lower[i] = strings.ToLower(l)
	}
	for i, line := range lower {
		if !strings.Contains(line, role) {
			continue
		}
		end := min(i+5, len(lower))
		window := strings.Join(lower[i:end], " ")
		for _, phrase := range koopSameAsHolder {
			if strings.Contains(window, phrase) {
				return true
			}
		}
	}
	return false
}

// koopOwnerAddress rebuilds the owner's address from up to three lines after
// "Adresa sídla" that look like address parts (postal code or comma).
func koopOwnerAddress(lines []string) string {
	for i, line := range lines {
		if !strings.Contains(line, "Adresa sídla") {
			continue
		}
		var parts []string
		for j := i + 1; j < min(i+4, len(lines)); j++ {
			if koopPostalCodeRe.MatchString(lines[j]) || strings.Contains(lines[j], ",") {
				parts = append(parts, strings.TrimSpace(lines[j]))
			}
		}
		return strings.TrimSpace(strings.Join(parts, " "))
	}
	return ""
}

// koopOwnerSection returns the text from the first "vlastník" onwards. The
// insurer's own IČO and VAT status are printed in the header above it.
func koopOwnerSection(text string) string {
	loc := koopOwnerSectionRe.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	return text[loc[0]:]
}

func koopSupplemental(text string) string {
	m := koopSupplementalRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	var items []string
	for _, line := range strings.Split(m[1], "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "pojištění") && !strings.Contains(lower, "asistenční") {
			items = append(items, line)
		}
	}
	return strings.Join(uniqueSorted(items), ", ")
}
