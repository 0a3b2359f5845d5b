package extractor

import (
	"fmt"
	"strings"
)

// Options configures the default extractor set.
type Options struct {
	Institutions []Institution
	Sheet        string
}

// Defaults returns the built-in extractors in classification priority order.
// Institution-specific OFX extractors come first so they win over the
// generic one.
func Defaults(opts Options) []Extractor {
	extractors := make([]Extractor, 0, len(opts.Institutions)+2)
	for _, inst := range opts.Institutions {
		extractors = append(extractors, NewInstitutionOFX(inst))
	}
	extractors = append(extractors, NewOFX(), NewSpreadsheet(opts.Sheet))
	return extractors
}

// Lookup finds an extractor by name, ignoring case.
func Lookup(extractors []Extractor, name string) (Extractor, error) {
	for _, e := range extractors {
		if strings.EqualFold(e.Name(), name) {
			return e, nil
		}
	}
	names := make([]string, 0, len(extractors))
	for _, e := range extractors {
		names = append(names, e.Name())
	}
	return nil, fmt.Errorf("unknown extractor %q (available: %s)", name, strings.Join(names, ", "))
}
