// =============================================================================
// RCDV Generator - Summary Builder
// =============================================================================
//
// This module turns an aggregated order into the flat render map consumed by
// the document templates. It owns the presentation rules of the RCDV form:
//   - Empty category buckets print as blanks, not as "R$ 0 0,00"
//   - Currency values go through the configured money.Formatter
//   - The trip narrative is derived from event, period and location
//
// The builder never fails: missing inputs surface as empty strings.
//
// =============================================================================

package summary

import (
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/rcdv-generator/internal/money"
	"github.com/ginjaninja78/rcdv-generator/internal/types"
)

// =============================================================================
// RENDER MAP KEYS
// =============================================================================

// Keys of the render map. Templates reference these names directly.
const (
	KeyOrder           = "numero_rcdv"
	KeyEntity          = "entidade"
	KeyProject         = "projeto"
	KeyEvent           = "evento"
	KeyIssueDate       = "data_emissao"
	KeyOtherMarker     = "rs_ajuda_custo"
	KeyOtherCount      = "ajuda_custo_qtd"
	KeyOtherValue      = "ajuda_custo_valor"
	KeyTransportMarker = "rs_passagem"
	KeyTransportCount  = "passagem_qtd"
	KeyTransportValue  = "passagem_valor"
	KeyLodgingMarker   = "rs_hospedagem"
	KeyLodgingCount    = "hospedagem_qtd"
	KeyLodgingValue    = "hospedagem_valor"
	KeyNarrative       = "detalhe_objetivo_viagem"
	KeyGrandTotal      = "total_geral"
	KeyManager         = "nome_gestor"
	KeyAccountant      = "nome_contador"
	KeyTravelers       = "pessoas"

	// Fields of each entry in the "pessoas" list.
	KeyTravelerName  = "nome"
	KeyTravelerRole  = "cargo"
	KeyTravelerTotal = "total_individual"
)

// CurrencyMarker is printed in front of every non-empty bucket.
const CurrencyMarker = "R$"

// Keys lists every scalar key of the render map, in form order.
var Keys = []string{
	KeyOrder, KeyEntity, KeyProject, KeyEvent, KeyIssueDate,
	KeyOtherMarker, KeyOtherCount, KeyOtherValue,
	KeyTransportMarker, KeyTransportCount, KeyTransportValue,
	KeyLodgingMarker, KeyLodgingCount, KeyLodgingValue,
	KeyNarrative, KeyGrandTotal, KeyManager, KeyAccountant,
}

// TravelerKeys lists the keys of each "pessoas" entry.
var TravelerKeys = []string{KeyTravelerName, KeyTravelerRole, KeyTravelerTotal}

// =============================================================================
// METADATA
// =============================================================================

// Metadata is the caller-supplied part of the form, shared by every order of
// a batch.
type Metadata struct {
	// Entity is the resolved issuing entity.
	Entity Entity

	// Project is the project name printed on the form.
	Project string

	// Manager is the name of the approving manager.
	Manager string

	// Accountant is the name of the accountant.
	Accountant string

	// IssueDate is the form's issue date.
	IssueDate IssueDate
}

// =============================================================================
// BUILDER
// =============================================================================

// Builder produces render maps.
type Builder struct {
	formatter money.Formatter
}

// NewBuilder returns a builder that formats currency with f.
func NewBuilder(f money.Formatter) *Builder {
	return &Builder{formatter: f}
}

// Build produces the render map of one order.
//
// PARAMETERS:
//   - s: The aggregated order.
//   - meta: The batch metadata.
//
// RETURNS:
//   - The render map. Every key in Keys is present, plus KeyTravelers.
func (b *Builder) Build(s *types.OrderSummary, meta Metadata) types.RenderMap {
	m := types.RenderMap{
		KeyOrder:      strconv.FormatInt(s.Order, 10),
		KeyEntity:     meta.Entity.Name,
		KeyProject:    meta.Project,
		KeyEvent:      s.Event,
		KeyIssueDate:  meta.IssueDate.String(),
		KeyNarrative:  Narrative(s.Event, s.Period, s.Location),
		KeyGrandTotal: b.formatter.Format(s.GrandTotal),
		KeyManager:    meta.Manager,
		KeyAccountant: meta.Accountant,
	}

	b.putBucket(m, s.Other, KeyOtherMarker, KeyOtherCount, KeyOtherValue)
	b.putBucket(m, s.Transport, KeyTransportMarker, KeyTransportCount, KeyTransportValue)
	b.putBucket(m, s.Lodging, KeyLodgingMarker, KeyLodgingCount, KeyLodgingValue)

	travelers := make([]map[string]string, 0, len(s.Travelers))
	for _, t := range s.Travelers {
		travelers = append(travelers, map[string]string{
			KeyTravelerName:  t.Name,
			KeyTravelerRole:  t.Role,
			KeyTravelerTotal: b.formatter.Format(t.Total),
		})
	}
	m[KeyTravelers] = travelers

	return m
}

// putBucket writes the marker, count and value of a bucket, or three
// blanks when the bucket is empty.
func (b *Builder) putBucket(m types.RenderMap, bucket types.Bucket, markerKey, countKey, valueKey string) {
	if bucket.Empty() {
		m[markerKey] = ""
		m[countKey] = ""
		m[valueKey] = ""
		return
	}
	m[markerKey] = CurrencyMarker
	m[countKey] = strconv.Itoa(bucket.Count)
	m[valueKey] = b.formatter.Format(bucket.Sum)
}

// =============================================================================
// NARRATIVE
// =============================================================================

// Narrative builds the "objective of the trip" sentence. The event is
// uppercased and every literal "EVENTO" is removed; surrounding spaces are
// kept as they are.
func Narrative(event, period, location string) string {
	cleaned := strings.ReplaceAll(strings.ToUpper(event), "EVENTO", "")

	var b strings.Builder
	b.WriteString("DESPESAS REFERENTES A ")
	b.WriteString(cleaned)
	b.WriteString(", NO PERÍODO DE ")
	b.WriteString(period)
	b.WriteString(", NA CIDADE DE ")
	b.WriteString(location)
	b.WriteString(".")
	return b.String()
}

// =============================================================================
// ISSUE DATE
// =============================================================================

// IssueDateLayout is the layout the form prints dates in.
const IssueDateLayout = "02/01/2006"

// Accepted input layouts, tried in order.
var issueDateInputs = []string{"2006-01-02", IssueDateLayout}

// IssueDate is either a structured date or a raw string passed through.
type IssueDate struct {
	Time time.Time
	Raw  string
}

// String renders the date for the form: structured dates as dd/mm/yyyy,
// raw values unchanged.
func (d IssueDate) String() string {
	if !d.Time.IsZero() {
		return d.Time.Format(IssueDateLayout)
	}
	return d.Raw
}

// RawIssueDate wraps a value that should be printed verbatim.
func RawIssueDate(raw string) IssueDate {
	return IssueDate{Raw: raw}
}

// ParseIssueDate parses a YYYY-MM-DD (or dd/mm/yyyy) date. When the value
// cannot be parsed it returns now and ok=false; callers decide whether to
// warn or reject.
func ParseIssueDate(raw string, now time.Time) (IssueDate, bool) {
	value := strings.TrimSpace(raw)
	for _, layout := range issueDateInputs {
		if t, err := time.Parse(layout, value); err == nil {
			return IssueDate{Time: t}, true
		}
	}
	return IssueDate{Time: now}, false
}
