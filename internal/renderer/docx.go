package renderer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"regexp"
	"strings"
	"text/template"

	"github.com/klauspost/compress/zip"

	"github.com/ginjaninja78/rcdv-generator/internal/types"
)

// DocxExtension is the file extension of rendered Word documents.
const DocxExtension = "docx"

// Parts of a .docx that may carry template actions. Everything else in the
// package is copied through untouched.
var templatedPart = regexp.MustCompile(`^word/(document|header[0-9]*|footer[0-9]*|footnotes|endnotes)\.xml$`)

var (
	// action matches one {{ ... }} action, possibly spanning XML runs.
	action = regexp.MustCompile(`(?s)\{\{.*?\}\}`)

	// xmlTag matches any markup Word inserts inside an action when the
	// author edits it (run boundaries, proofing marks, bookmarks).
	xmlTag = regexp.MustCompile(`<[^>]*>`)

	// splitOpen and splitClose match a "{{" or "}}" that Word broke across
	// runs, e.g. {</w:t></w:r><w:r><w:t>{.
	splitOpen  = regexp.MustCompile(`\{(?:<[^>]*>)+\{`)
	splitClose = regexp.MustCompile(`\}(?:<[^>]*>)+\}`)

	// bareIdent is the {{name}} shorthand for {{.name}}.
	bareIdent = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*$`)
)

// Template keywords that must not be rewritten by the shorthand.
var keywords = map[string]bool{
	"end": true, "else": true, "break": true, "continue": true,
	"nil": true, "true": true, "false": true,
}

// DocxRenderer renders Word templates.
type DocxRenderer struct {
	fsys      fs.FS
	templates Templates
}

// NewDocxRenderer returns a renderer reading templates from fsys.
func NewDocxRenderer(fsys fs.FS, templates Templates) *DocxRenderer {
	return &DocxRenderer{fsys: fsys, templates: templates}
}

// Extension returns the rendered file extension.
func (r *DocxRenderer) Extension() string {
	return DocxExtension
}

// Render fills the template of variant with data and returns the document.
//
// PARAMETERS:
//   - ctx: Checked before the template is read.
//   - variant: Selects the template file.
//   - data: The render map; values are XML-escaped before substitution.
//
// RETURNS:
//   - The .docx bytes.
//   - An error if the template is missing, malformed or references a key
//     the render map does not have.
func (r *DocxRenderer) Render(ctx context.Context, variant types.TemplateVariant, data types.RenderMap) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, name, err := load(r.fsys, r.templates, variant)
	if err != nil {
		return nil, err
	}

	src, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("template %s is not a docx package: %w", name, err)
	}

	values := mapValues(data, escapeXML)

	var out bytes.Buffer
	dst := zip.NewWriter(&out)

	for _, file := range src.File {
		if templatedPart.MatchString(file.Name) {
			err = renderPart(dst, file, values)
		} else {
			err = copyPart(dst, file)
		}
		if err != nil {
			return nil, fmt.Errorf("template %s, part %s: %w", name, file.Name, err)
		}
	}

	if err := dst.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish document: %w", err)
	}
	return out.Bytes(), nil
}

// renderPart executes one XML part as a template.
func renderPart(dst *zip.Writer, file *zip.File, values map[string]any) error {
	content, err := readPart(file)
	if err != nil {
		return err
	}

	tmpl, err := template.New(file.Name).
		Option("missingkey=error").
		Parse(cleanActions(string(content)))
	if err != nil {
		return fmt.Errorf("failed to parse: %w", err)
	}

	header := file.FileHeader
	w, err := dst.CreateHeader(&header)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(w, values); err != nil {
		return fmt.Errorf("failed to execute: %w", err)
	}
	return nil
}

// copyPart copies a part unchanged.
func copyPart(dst *zip.Writer, file *zip.File) error {
	content, err := readPart(file)
	if err != nil {
		return err
	}

	header := file.FileHeader
	w, err := dst.CreateHeader(&header)
	if err != nil {
		return err
	}
	_, err = w.Write(content)
	return err
}

func readPart(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// cleanActions strips the XML Word scatters inside {{ }} actions and expands
// the {{name}} shorthand.
func cleanActions(xml string) string {
	xml = splitOpen.ReplaceAllString(xml, "{{")
	xml = splitClose.ReplaceAllString(xml, "}}")

	return action.ReplaceAllStringFunc(xml, func(a string) string {
		inner := xmlTag.ReplaceAllString(a[2:len(a)-2], "")
		inner = strings.NewReplacer("&quot;", `"`, "\u201c", `"`, "\u201d", `"`).Replace(inner)

		if m := bareIdent.FindStringSubmatch(inner); m != nil && !keywords[m[1]] {
			inner = "." + m[1]
		}
		return "{{" + inner + "}}"
	})
}
