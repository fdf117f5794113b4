package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Veraticus/charge-tax-intel/internal/engine"
)

// WriteJSON writes a rounded analysis as indented JSON. Decimals are
// encoded as strings.
func WriteJSON(w io.Writer, a engine.Analysis) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a.Rounded()); err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	return nil
}
