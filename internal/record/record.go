// Package record defines the fixed ledger schema and the immutable record
// produced for every processed offer document.
package record

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Field identifies one column of the ledger schema.
type Field int

const (
	Name Field = iota
	NationalID
	BirthDate
	Address
	ContractNumber
	Plate
	VehiclePrice
	Mileage
	AnnualMileage
	PolicyStart
	Premium
	LiabilityLimits
	Comprehensive
	Supplemental
	Phone
	Email
	HolderPersonType
	HolderVATPayer
	OperatorMatches
	OwnerMatches
	OperatorName
	OperatorID
	OperatorAddress
	OperatorPersonType
	OperatorVATPayer
	OwnerName
	OwnerID
	OwnerAddress
	OwnerPersonType
	OwnerVATPayer
	SourceFile

	numFields
)

// headers are the ledger column names, in ledger order. Existing ledgers use
// these exact Czech headers so they must not be renamed.
var headers = [numFields]string{
	Name:               "Jméno a příjmení",
	NationalID:         "Rodné číslo",
	BirthDate:          "Datum narození",
	Address:            "Adresa",
	ContractNumber:     "Číslo smlouvy",
	Plate:              "SPZ",
	VehiclePrice:       "Cena vozidla",
	Mileage:            "Najeté km",
	AnnualMileage:      "Roční nájezd",
	PolicyStart:        "Počátek pojištění",
	Premium:            "Cena",
	LiabilityLimits:    "Krytí PR",
	Comprehensive:      "Havarijní pojištění",
	Supplemental:       "Další připojištění",
	Phone:              "Telefon",
	Email:              "E-mail",
	HolderPersonType:   "Pojistník - Typ osoby",
	HolderVATPayer:     "Pojistník - Plátce DPH",
	OperatorMatches:    "Shodný provozovatel",
	OwnerMatches:       "Shodný vlastník",
	OperatorName:       "Provozovatel - Název",
	OperatorID:         "Provozovatel - IČO",
	OperatorAddress:    "Provozovatel - Adresa",
	OperatorPersonType: "Provozovatel - Typ osoby",
	OperatorVATPayer:   "Provozovatel - Plátce DPH",
	OwnerName:          "Vlastník - Název",
	OwnerID:            "Vlastník - IČO",
	OwnerAddress:       "Vlastník - Adresa",
	OwnerPersonType:    "Vlastník - Typ osoby",
	OwnerVATPayer:      "Vlastník - Plátce DPH",
	SourceFile:         "Zdrojový soubor",
}

// Header returns the ledger column name of f, or "" for an unknown field.
func (f Field) Header() string {
	if !f.valid() {
		return ""
	}
	return headers[f]
}

func (f Field) String() string { return f.Header() }

func (f Field) valid() bool { return f >= 0 && f < numFields }

// Fields returns every schema field in ledger order.
func Fields() []Field {
	out := make([]Field, numFields)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// Columns returns the ledger header row.
func Columns() []string {
	out := make([]string, numFields)
	copy(out, headers[:])
	return out
}

// Record is one fully populated schema instance. It is a value type: copies
// never share state, so a record handed to a sink cannot be changed behind
// the caller's back. Missing values are always "".
type Record struct {
	values [numFields]string
}

// Get returns the value of f ("" when not found or unknown).
func (r Record) Get(f Field) string {
	if !f.valid() {
		return ""
	}
	return r.values[f]
}

// Values returns the row in ledger order.
func (r Record) Values() []string {
	out := make([]string, numFields)
	copy(out, r.values[:])
	return out
}

// Map returns header -> value for every field.
func (r Record) Map() map[string]string {
	out := make(map[string]string, numFields)
	for i, h := range headers {
		out[h] = r.values[i]
	}
	return out
}

// MarshalJSON writes the record as an object whose keys keep ledger order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, h := range headers {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(h)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Builder fills a record field by field, starting from the all-empty default.
type Builder struct {
	values [numFields]string
}

// NewBuilder starts a record for the given source file name.
func NewBuilder(sourceFile string) *Builder {
	b := &Builder{}
	b.values[SourceFile] = sourceFile
	return b
}

// Set stores a trimmed value. Unknown fields are ignored.
func (b *Builder) Set(f Field, v string) *Builder {
	if f.valid() {
		b.values[f] = strings.TrimSpace(v)
	}
	return b
}

// SetIfEmpty stores v only when f has no value yet.
func (b *Builder) SetIfEmpty(f Field, v string) *Builder {
	if f.valid() && b.values[f] == "" {
		b.Set(f, v)
	}
	return b
}

// Get returns the value currently held for f.
func (b *Builder) Get(f Field) string {
	if !f.valid() {
		return ""
	}
	return b.values[f]
}

// Build snapshots the builder. Later Set calls do not affect the returned record.
func (b *Builder) Build() Record {
	return Record{values: b.values}
}
