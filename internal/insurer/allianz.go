package insurer

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/offers-tracker/internal/record"
)

var (
	alzNationalIDRe    = regexp.MustCompile(`Rodné číslo:\s*(\d{9,10})`)
	alzPlateRe         = regexp.MustCompile(`([A-Z0-9]{5,8}), č\.`)
	alzContractRe      = regexp.MustCompile(`Nabídka pojistitele č\.\s*(\d+)`)
	alzPremiumLineRe   = regexp.MustCompile(`([0-9]{1,3}(?:[ \x{00A0}]?[0-9]{3}))\s*Kč`)
	alzPremiumTotalRe  = regexp.MustCompile(`(?i)Cena pojištění\s+([\d ]+)\s*KČ ROČNĚ`)
	alzPolicyStartRe   = regexp.MustCompile(`(?i)KČ ROČNĚ\s+(\d{1,2}\.\s*\d{1,2}\.\s*\d{4})`)
	alzAnnualMileageRe = regexp.MustCompile(`(?i)Roční nájezd:\s*(Do\s*[\d ]+km)`)
	alzPhoneRe         = regexp.MustCompile(`Mobilní telefon:\s*([+0-9 ]+)`)
	alzEmailRe         = regexp.MustCompile(`E[-–]?mail\s*[:：]?\s*([a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9.-]+)`)
	alzVehiclePriceRe  = regexp.MustCompile(`(?i)Cena vozidla\s*[:\-]?\s*(\d[\d \x{00A0}]*)\s*Kč`)
	alzMileageRe       = regexp.MustCompile(`(?i)Najeté km\s*[:\-]?\s*(\d[\d \x{00A0}]*)`)
)

var (
	alzSupplemental  = []string{"právní poradenství", "úrazové pojištění"}
	alzComprehensive = []string{
		"přírodní události",
		"požár a výbuch",
		"poškození zvířetem",
		"krádež",
		"skla",
		"vandalismus",
		"havárie",
		"doplatek na nové",
		"gap",
	}
)

// AllianzExtractor reads Allianz "Nabídka pojistitele" offers. Labels are
// followed by a colon and values often sit on the next line.
type AllianzExtractor struct{}

func (AllianzExtractor) Insurer() Insurer { return Allianz }

func (AllianzExtractor) ApproximateFields() []record.Field { return nil }

func (AllianzExtractor) Extract(text, filename string) record.Record {
	d := newDocument(text)
	b := record.NewBuilder(filename)

	b.Set(record.Name, d.lineAfter("Klient (Vy):", 2))
	id := d.find(alzNationalIDRe)
	b.Set(record.NationalID, id)
	b.Set(record.BirthDate, BirthDate(id))
	b.Set(record.Address, d.lineAfter("trvalý pobyt", 2))

	b.Set(record.Plate, d.find(alzPlateRe))
	b.Set(record.ContractNumber, d.find(alzContractRe))
	b.Set(record.Premium, allianzPremium(d))
	b.Set(record.PolicyStart, d.find(alzPolicyStartRe))
	b.Set(record.AnnualMileage, d.find(alzAnnualMileageRe))
	b.Set(record.VehiclePrice, digits(d.find(alzVehiclePriceRe)))
	b.Set(record.Mileage, digits(d.find(alzMileageRe)))

	b.Set(record.Phone, d.find(alzPhoneRe))
	b.Set(record.Email, d.email(alzEmailRe))

	if strings.Contains(d.flat, "limit 70/70") {
		b.Set(record.LiabilityLimits, "70/70")
	}
	b.Set(record.OperatorMatches, yesNo(strings.Contains(d.flat, "provozovatel je shodný")))
	b.Set(record.OwnerMatches, yesNo(strings.Contains(d.flat, "vlastník vozidla je shodný")))

	var extras []string
	for _, kw := range alzSupplemental {
		if d.flagged([]string{kw}) {
			extras = append(extras, capitalize(kw))
		}
	}
	b.Set(record.Supplemental, strings.Join(extras, ", "))
	b.Set(record.Comprehensive, yesNo(d.flagged(alzComprehensive)))

	return b.Build()
}

// allianzPremium looks for an amount in the three lines below the
// "vaše pojistné" label, then for the yearly total line.
func allianzPremium(d *document) string {
	for i, line := range d.lines {
		if !strings.Contains(strings.ToLower(line), "vaše pojistné") {
			continue
		}
		for j := i + 1; j <= i+3 && j < len(d.lines); j++ {
			if v := submatch(alzPremiumLineRe, d.lines[j]); v != "" {
				return digits(v)
			}
		}
		break
	}
	return digits(d.find(alzPremiumTotalRe))
}
