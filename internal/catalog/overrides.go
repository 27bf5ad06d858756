package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"pocketbot/internal/core"
)

// Overrides is the external configuration payload. It may be YAML or JSON.
// A list that is present replaces the built-in list for that field; an absent
// one keeps the default.
type Overrides struct {
	IncomeKeywords       *[]string         `yaml:"incomeKeywords"`
	ExpenseKeywords      *[]string         `yaml:"expenseKeywords"`
	RefundIncomePhrases  *[]string         `yaml:"refundIncomePhrases"`
	RefundExpensePhrases *[]string         `yaml:"refundExpensePhrases"`
	ReturnMarkers        *[]string         `yaml:"returnMarkers"`
	ThirdPartyMarkers    *[]string         `yaml:"thirdPartyMarkers"`
	DirectMappings       []MappingOverride `yaml:"directMappings"`
}

// MappingOverride is one entry of directMappings.
type MappingOverride struct {
	Contains string `yaml:"contains"`
	Category string `yaml:"category"`
	Type     string `yaml:"type,omitempty"`
}

// ParseOverrides decodes an override payload. Unknown keys are rejected so
// that typos surface at startup. Empty input yields empty overrides.
func ParseOverrides(data []byte) (*Overrides, error) {
	var o Overrides
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode classifier overrides: %w", err)
	}
	return &o, nil
}

// LoadFile builds a catalog from the override file at path. An empty path
// returns the built-in catalog.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classifier overrides: %w", err)
	}
	o, err := ParseOverrides(data)
	if err != nil {
		return nil, err
	}
	return Load(o)
}

func (o *Overrides) apply(r *Rules) {
	replace := func(dst *[]string, src *[]string) {
		if src != nil {
			*dst = *src
		}
	}
	replace(&r.IncomeKeywords, o.IncomeKeywords)
	replace(&r.ExpenseKeywords, o.ExpenseKeywords)
	replace(&r.RefundIncomePhrases, o.RefundIncomePhrases)
	replace(&r.RefundExpensePhrases, o.RefundExpensePhrases)
	replace(&r.ReturnMarkers, o.ReturnMarkers)
	replace(&r.ThirdPartyMarkers, o.ThirdPartyMarkers)

	for _, m := range o.DirectMappings {
		r.DirectMappings = append(r.DirectMappings, DirectMapping{
			Contains:   m.Contains,
			CategoryID: m.Category,
			Type:       core.TransactionType(Normalize(m.Type)),
		})
	}
}
