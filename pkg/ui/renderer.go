package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/logging"
)

var log = logging.GetLogger("ui")

// Renderer writes command results in one output format
type Renderer struct {
	format Format
	w      io.Writer
	styles Styles
}

// NewRenderer creates a renderer for w. FormatAuto is resolved against w.
func NewRenderer(format Format, w io.Writer) *Renderer {
	if format == FormatAuto {
		format = DetectFormat(w)
	}
	log.Debug().Str("format", format.String()).Msg("Creating renderer")

	r := &Renderer{format: format, w: w}
	if format == FormatTerminal {
		r.styles = DefaultStyles(lipgloss.NewRenderer(w))
	}
	return r
}

// Format returns the resolved output format
func (r *Renderer) Format() Format { return r.format }

func (r *Renderer) style(name, text string) string {
	if r.styles == nil {
		return text
	}
	return r.styles.Get(name).Render(text)
}

func (r *Renderer) field(b *strings.Builder, label, value string) {
	if r.styles == nil {
		fmt.Fprintf(b, "  %-10s %s\n", label, value)
		return
	}
	fmt.Fprintf(b, "%s%s\n", r.style("Label", label), r.style("Value", value))
}

func (r *Renderer) writeJSON(v interface{}) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Packages renders the elements built by `inspect`
func (r *Renderer) Packages(pkgs []Package) error {
	switch r.format {
	case FormatJSON:
		return r.writeJSON(pkgs)
	case FormatXML:
		for _, p := range pkgs {
			if err := p.Header.WriteXML(r.w); err != nil {
				return errors.Wrapf(err, errors.ErrInternal, "failed to write header of %s", p.NEVRA)
			}
		}
		return nil
	}

	var b strings.Builder
	for i, p := range pkgs {
		if i > 0 {
			b.WriteString("\n")
		}
		typeStyle := "Install"
		if p.Type == "erase" {
			typeStyle = "Erase"
		}
		fmt.Fprintf(&b, "%s %s\n", r.style("Package", p.NEVRA), r.style(typeStyle, p.Type))
		if p.Key != "" {
			r.field(&b, "key", p.Key)
		}
		r.field(&b, "color", fmt.Sprintf("0x%x", uint32(p.Color)))
		r.field(&b, "files", fmt.Sprintf("%d", p.Files))
		if p.Source {
			r.field(&b, "source", "yes")
		}
		for _, rel := range p.Relocations {
			target := rel.New
			if target == "" {
				target = "(excluded)"
			}
			r.field(&b, "relocate", rel.Old+" -> "+target)
		}
		for _, c := range p.Collections {
			r.field(&b, "collection", c)
		}
		for _, prob := range p.Problems {
			r.field(&b, "problem", r.style("Problem", prob))
		}
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

// Run renders the summary of a transaction run
func (r *Renderer) Run(rep RunReport) error {
	switch r.format {
	case FormatJSON:
		return r.writeJSON(rep)
	case FormatXML:
		return errors.New(errors.ErrInvalidInput, "xml output is only available for inspect")
	}

	var b strings.Builder
	for _, prob := range rep.Problems {
		fmt.Fprintf(&b, "%s %s\n", r.style("Problem", "problem:"), prob)
	}
	for _, el := range rep.Elements {
		status := r.style("Success", "ok")
		if el.Failed {
			status = r.style("Failed", "failed")
		}
		fmt.Fprintf(&b, "%-8s %s %s\n", el.Type, el.NEVRA, status)
	}
	summary := fmt.Sprintf("%d element(s), %d failed (flags: %s)", len(rep.Elements), rep.Failed, rep.Flags)
	if rep.Failed > 0 {
		summary = r.style("Failed", summary)
	}
	fmt.Fprintln(&b, summary)

	_, err := io.WriteString(r.w, b.String())
	return err
}

// Error renders an error message
func (r *Renderer) Error(err error) error {
	if r.format == FormatJSON {
		return r.writeJSON(map[string]interface{}{
			"error": err.Error(),
			"code":  errors.GetErrorCode(err),
		})
	}
	_, werr := fmt.Fprintf(r.w, "%s %v\n", r.style("Error", "Error:"), err)
	return werr
}
