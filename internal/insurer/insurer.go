// Package insurer turns the text of an insurance offer into a ledger record.
// Detect picks the insurer, For returns its ruleset. Every ruleset is a pure
// function of (text, filename): no I/O, no shared state.
package insurer

import (
	"errors"
	"strings"

	"github.com/joseph-ayodele/offers-tracker/internal/record"
)

// ErrUnsupported is returned when no known insurer token is found in the text.
var ErrUnsupported = errors.New("unsupported insurer")

// Insurer tags the ruleset selected for a document.
type Insurer int

const (
	Unsupported Insurer = iota
	Allianz
	Kooperativa
	Generali
)

func (i Insurer) String() string {
	switch i {
	case Allianz:
		return "allianz"
	case Kooperativa:
		return "kooperativa"
	case Generali:
		return "generali"
	default:
		return "unsupported"
	}
}

// Extractor maps document text to a record for one insurer.
type Extractor interface {
	Insurer() Insurer
	// Extract never fails: fields it cannot find stay "".
	Extract(text, filename string) record.Record
	// ApproximateFields lists fields whose rule is a known heuristic.
	ApproximateFields() []record.Field
}

// For returns the ruleset of ins.
func For(ins Insurer) (Extractor, error) {
	switch ins {
	case Allianz:
		return AllianzExtractor{}, nil
	case Kooperativa:
		return KooperativaExtractor{}, nil
	case Generali:
		return GeneraliExtractor{}, nil
	default:
		return nil, ErrUnsupported
	}
}

// ExtractDocument detects the insurer and runs its ruleset. Blank text and
// unknown insurers yield ErrUnsupported and no record.
func ExtractDocument(text, filename string) (record.Record, Insurer, error) {
	if strings.TrimSpace(text) == "" {
		return record.Record{}, Unsupported, ErrUnsupported
	}
	ins := Detect(text)
	ex, err := For(ins)
	if err != nil {
		return record.Record{}, ins, err
	}
	return ex.Extract(text, filename), ins, nil
}
