package insurer

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/offers-tracker/internal/record"
)

var (
	genHolderBlockRe   = regexp.MustCompile(`(?is)POJISTNÍK\s*-\s*(fyzická osoba podnikatel|fyzická osoba|právnická osoba)\s*(.*?)(?:\n(?:PRACOVNÍK|POJISTNÁ|TECHNICKÉ|POJIŠTĚNÍ)|\z)`)
	genVehicleBlockRe  = regexp.MustCompile(`(?is)3\.3\s+Údaje o vozidle\s*(.*?)(?:\n(?:3\.4|POJIŠTĚNÍ|TECHNICKÉ)|\z)`)
	genContractRe      = regexp.MustCompile(`Pojistná smlouva číslo\s*:\s*(\d+)`)
	genPolicyStartRe   = regexp.MustCompile(`(?i)počátkem pojištění\s+(\d{1,2}\.\s*\d{1,2}\.\s*\d{4})`)
	genLiabilityRe     = regexp.MustCompile(`(?is)Limit pojistného plnění.*?(\d{2,3})\s*[\d\s]*Kč.*?škody na majetku.*?(\d{2,3})\s*[\d\s]*Kč`)
	genVehiclePriceRe  = regexp.MustCompile(`(?i)cena vozidla\s*[:\-]?\s*(\d[\d ]{3,9})`)
	genMileageRe       = regexp.MustCompile(`(?i)Najeté (?:kilometry|km)\s*[:\-]?\s*(\d[\d ]{0,9})`)
	genAnnualMileageRe = regexp.MustCompile(`(?i)Roční nájezd\s*[:\-]?\s*(\d[\d ]{0,9})`)
	genVATPayerRe      = regexp.MustCompile(`(?i)Plátce DPH\s*[:\-]?\s*(ano|ne)\b`)
	genOperatorSameRe  = regexp.MustCompile(`(?i)3\.2\s+Držitel\s+\(provozovatel\)\s+vozidla\s+je\s+shodný\s+s\s+pojistníkem`)
	genOwnerSameRe     = regexp.MustCompile(`(?i)3\.1\s+Vlastník\s+vozidla\s+je\s+shodný`)
	genOwnerNameRe     = regexp.MustCompile(`3\.1\s+Vlastník vozidla:\s*(.+)`)
	genSupplementalRe  = regexp.MustCompile(`(?i)4\.2\s+Doplňková pojištění`)
	genNumberedHeadRe  = regexp.MustCompile(`^\s*\d+\.(?:\d+\.?)*\s+\p{L}`)
	genNameRe          = colonLabelRe("Titul, jméno, příjmení, titul za jménem")
	genNationalIDRe    = colonLabelRe("Rodné číslo")
	genPhoneRe         = colonLabelRe("Telefon")
	genEmailRe         = colonLabelRe("E-mail")
	genAddressRe       = colonLabelRe("Trvalá adresa")
	genPlateRe         = colonLabelRe("Registrační značka")
	genPremiumRes      = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Celkem roční pojistné.*?([0-9\s]{4,7})\s*Kč`),
		regexp.MustCompile(`(?i)Výše jednotlivé splátky.*?([0-9\s]{4,7})\s*Kč`),
		regexp.MustCompile(`(?i)Částka\s*([0-9\s]{4,7})\s*Kč`),
	}
	genComprehensive = []string{
		"havarijní pojištění",
		"poškození zvířetem",
		"přírodní události",
		"havárie",
		"skla",
		"krádež",
		"vandalismus",
		"gap",
	}
)

// GeneraliExtractor reads Generali Česká pojišťovna offers. The document is
// split into numbered sections and most labels are searched inside the
// section they belong to.
type GeneraliExtractor struct{}

func (GeneraliExtractor) Insurer() Insurer { return Generali }

// ApproximateFields reports Comprehensive: Generali offers list the coverage
// catalogue even when it is not taken, so keyword presence over-reports.
func (GeneraliExtractor) ApproximateFields() []record.Field {
	return []record.Field{record.Comprehensive}
}

func (GeneraliExtractor) Extract(text, filename string) record.Record {
	d := newDocument(text)
	b := record.NewBuilder(filename)

	if m := genHolderBlockRe.FindStringSubmatch(d.text); m != nil {
		block := m[2]
		b.Set(record.Name, submatch(genNameRe, block))
		id := submatch(genNationalIDRe, block)
		b.Set(record.NationalID, id)
		b.Set(record.BirthDate, BirthDate(id))
		b.Set(record.Phone, submatch(genPhoneRe, block))
		b.Set(record.Email, submatch(genEmailRe, block))
		b.Set(record.Address, submatch(genAddressRe, block))
		b.Set(record.HolderPersonType, strings.ToLower(m[1]))
	}

	b.Set(record.ContractNumber, d.find(genContractRe))
	b.Set(record.PolicyStart, d.find(genPolicyStartRe))

	vehicle := ""
	if m := genVehicleBlockRe.FindStringSubmatch(d.text); m != nil {
		vehicle = m[1]
		b.Set(record.Plate, submatch(genPlateRe, vehicle))
	}
	b.Set(record.VehiclePrice, digits(scopedFind(genVehiclePriceRe, vehicle, d.text)))
	b.Set(record.Mileage, digits(scopedFind(genMileageRe, vehicle, d.text)))
	b.Set(record.AnnualMileage, digits(scopedFind(genAnnualMileageRe, vehicle, d.text)))

	if m := genLiabilityRe.FindStringSubmatch(d.text); m != nil {
		b.Set(record.LiabilityLimits, m[1]+"/"+m[2])
	}
	for _, re := range genPremiumRes {
		b.SetIfEmpty(record.Premium, digits(d.find(re)))
	}

	b.Set(record.Supplemental, genSupplemental(d))
	b.Set(record.Comprehensive, yesNo(containsAny(d.flat, genComprehensive)))

	switch strings.ToLower(d.find(genVATPayerRe)) {
	case "ano":
		b.Set(record.HolderVATPayer, yesNo(true))
	case "ne":
		b.Set(record.HolderVATPayer, yesNo(false))
	}

	b.Set(record.OperatorMatches, yesNo(genOperatorSameRe.MatchString(d.text)))
	switch {
	case genOwnerSameRe.MatchString(d.text):
		b.Set(record.OwnerMatches, yesNo(true))
	default:
		b.Set(record.OwnerName, d.find(genOwnerNameRe))
		b.Set(record.OwnerMatches, yesNo(false))
	}

	return b.Build()
}

// colonLabelRe matches "label: value" and captures the value.
func colonLabelRe(label string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(label) + `\s*:\s*(.+)`)
}

// scopedFind searches the section first and the whole text second.
func scopedFind(re *regexp.Regexp, section, text string) string {
	if section != "" {
		if v := submatch(re, section); v != "" {
			return v
		}
	}
	return submatch(re, text)
}

// genSupplemental lists the non-empty lines of section 4.2 up to the next
// section heading.
func genSupplemental(d *document) string {
	loc := genSupplementalRe.FindStringIndex(d.text)
	if loc == nil {
		return ""
	}
	lines := strings.Split(d.text[loc[1]:], "\n")
	var items []string
	for i, line := range lines {
		if i > 0 && isSectionHeading(line) {
			break
		}
		items = append(items, line)
	}
	return strings.Join(uniqueInOrder(items), ", ")
}

// isSectionHeading matches numbered headers ("4.3 Asistence") and all-caps
// titles ("TECHNICKÉ ÚDAJE").
func isSectionHeading(line string) bool {
	if genNumberedHeadRe.MatchString(line) {
		return true
	}
	t := strings.TrimSpace(line)
	return len([]rune(t)) > 3 && strings.ToUpper(t) == t && strings.ToLower(t) != t
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// uniqueInOrder trims, drops empties and keeps the first occurrence of each item.
func uniqueInOrder(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
