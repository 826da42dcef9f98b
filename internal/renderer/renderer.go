// =============================================================================
// RCDV Generator - Document Renderers
// =============================================================================
//
// This package fills the RCDV document templates with a render map. Two
// template formats are supported:
//   - DOCX: Word documents whose XML parts hold text/template actions
//   - XLSX: workbooks whose cells hold {{key}} placeholders
//
// Templates are looked up by variant (social / national) in an fs.FS,
// normally the configured templates directory. They are read on every
// render, so a template fixed on disk is picked up without a restart.
//
// TEMPLATE SYNTAX (DOCX):
//   {{.numero_rcdv}}                     scalar value
//   {{numero_rcdv}}                      same, shorthand
//   {{range .pessoas}}{{.nome}}{{end}}   one block per traveler
//
// TEMPLATE SYNTAX (XLSX):
//   {{numero_rcdv}}                      scalar value in any cell
//   {{pessoas.nome}}                     the row holding it repeats per traveler
//
// =============================================================================

package renderer

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"

	"github.com/ginjaninja78/rcdv-generator/internal/types"
)

// ErrUnknownVariant is returned when no template is configured for a variant.
var ErrUnknownVariant = errors.New("no template configured for variant")

// Templates maps each variant to a file name inside the template filesystem.
type Templates map[types.TemplateVariant]string

// load reads the template of a variant.
func load(fsys fs.FS, templates Templates, variant types.TemplateVariant) ([]byte, string, error) {
	name, ok := templates[variant]
	if !ok || name == "" {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownVariant, variant)
	}

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, name, fmt.Errorf("failed to read template %s: %w", name, err)
	}
	return data, name, nil
}

// =============================================================================
// VALUE HELPERS
// =============================================================================

// escapeXML escapes the characters that are special in XML text and
// attribute values.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}

// mapValues returns a copy of the render map with every string value passed
// through fn, including the values of the traveler list.
func mapValues(data types.RenderMap, fn func(string) string) map[string]any {
	out := make(map[string]any, len(data))
	for key, value := range data {
		switch v := value.(type) {
		case string:
			out[key] = fn(v)
		case []map[string]string:
			list := make([]map[string]string, len(v))
			for i, entry := range v {
				copied := make(map[string]string, len(entry))
				for k, s := range entry {
					copied[k] = fn(s)
				}
				list[i] = copied
			}
			out[key] = list
		case nil:
			out[key] = ""
		default:
			out[key] = fn(fmt.Sprint(v))
		}
	}
	return out
}

// travelers extracts the traveler list of a render map.
func travelers(data types.RenderMap, key string) []map[string]string {
	list, _ := data[key].([]map[string]string)
	return list
}
