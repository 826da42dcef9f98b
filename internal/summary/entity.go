package summary

import (
	"strings"

	"github.com/ginjaninja78/rcdv-generator/internal/types"
)

// Long-form entity names printed on the form.
const (
	EntitySocialName   = "SERVIÇO SOCIAL DA INDÚSTRIA"
	EntityNationalName = "SERVIÇO NACIONAL DE APRENDIZAGEM INDUSTRIAL"
)

// socialCode is the only code mapped to the social entity; every other code
// resolves to the national one.
const socialCode = "SESI"

// Entity is an issuing entity and the template variant it is rendered with.
type Entity struct {
	Code    string
	Name    string
	Variant types.TemplateVariant
}

// ResolveEntity maps a short entity code to its long-form name and template
// variant. The comparison is case-insensitive.
func ResolveEntity(code string) Entity {
	name := EntityNationalName
	if strings.EqualFold(strings.TrimSpace(code), socialCode) {
		name = EntitySocialName
	}

	variant := types.VariantNational
	if strings.Contains(name, "SOCIAL") {
		variant = types.VariantSocial
	}

	return Entity{Code: code, Name: name, Variant: variant}
}
