package validation

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// COLUMN SCHEMA
// =============================================================================

// Column identifies one required column of the expense spreadsheet.
type Column int

// Required columns, in model-spreadsheet order.
const (
	ColOrder Column = iota
	ColTraveler
	ColRole
	ColCategory
	ColAmount
	ColEvent
	ColPeriod
	ColLocation
)

// Columns lists every required column in model-spreadsheet order.
var Columns = []Column{
	ColOrder, ColTraveler, ColRole, ColCategory,
	ColAmount, ColEvent, ColPeriod, ColLocation,
}

// columnSpec holds the canonical header and accepted aliases of a column.
type columnSpec struct {
	header  string
	aliases []string
}

var schema = map[Column]columnSpec{
	ColOrder:    {header: "Nº DA ORDEM", aliases: []string{"N° DA ORDEM", "NO DA ORDEM", "NUMERO DA ORDEM", "ORDEM"}},
	ColTraveler: {header: "NOME DO VIAJANTE", aliases: []string{"VIAJANTE"}},
	ColRole:     {header: "CARGO"},
	ColCategory: {header: "RUBRICA"},
	ColAmount:   {header: "VALOR UTILIZADO NO PROJETO", aliases: []string{"VALOR UTILIZADO", "VALOR"}},
	ColEvent:    {header: "EVENTO"},
	ColPeriod:   {header: "PERÍODO DA VIAGEM", aliases: []string{"PERIODO"}},
	ColLocation: {header: "LOCAL", aliases: []string{"CIDADE"}},
}

// Header returns the canonical header of the column.
func (c Column) Header() string {
	return schema[c].header
}

// String implements fmt.Stringer.
func (c Column) String() string {
	return c.Header()
}

// Headers returns the canonical header row.
func Headers() []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = c.Header()
	}
	return out
}

// =============================================================================
// HEADER MATCHING
// =============================================================================

// NormalizeHeader folds a header cell for comparison: accents and the
// ordinal indicators are dropped, letters uppercased, whitespace collapsed.
// "  Período da viagem " and "PERIODO DA VIAGEM" normalize the same.
func NormalizeHeader(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	// NFKD turns "º" into "o"; "°" has no decomposition.
	folded = strings.NewReplacer("°", "O").Replace(folded)

	return strings.Join(strings.Fields(strings.ToUpper(folded)), " ")
}

// ResolveColumns maps each required column to its index in the header row.
// Exact (normalized) header matches win over aliases. All missing columns
// are reported at once.
func ResolveColumns(headers []string) (map[Column]int, error) {
	byName := make(map[string]int, len(headers))
	for i, h := range headers {
		key := NormalizeHeader(h)
		if key == "" {
			continue
		}
		if _, dup := byName[key]; !dup {
			byName[key] = i
		}
	}

	index := make(map[Column]int, len(Columns))
	var missing []string

	for _, col := range Columns {
		def := schema[col]
		if i, ok := byName[NormalizeHeader(def.header)]; ok {
			index[col] = i
			continue
		}

		found := false
		for _, alias := range def.aliases {
			if i, ok := byName[NormalizeHeader(alias)]; ok {
				index[col] = i
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, def.header)
		}
	}

	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}
	return index, nil
}
