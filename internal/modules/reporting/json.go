package reporting

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/stocklab/stocklab/internal/domain"
)

// JSONRenderer encodes the report as indented JSON. Undefined statistics are null.
type JSONRenderer struct {
	Indent string
}

// NewJSONRenderer creates a JSON renderer with two-space indentation
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{Indent: "  "}
}

// Render writes the report
func (r *JSONRenderer) Render(w io.Writer, report *domain.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", r.Indent)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
