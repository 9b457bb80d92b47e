package output

import (
	"encoding/json"
	"io"

	"github.com/vulnverified/blobsweep/internal/engine"
)

// WriteJSON writes the container run result as indented JSON to w.
func WriteJSON(w io.Writer, result *engine.ScanResult) error {
	return writeIndented(w, result)
}

// WriteSubdomainJSON writes the subdomain run result as indented JSON to w.
func WriteSubdomainJSON(w io.Writer, result *engine.SubdomainResult) error {
	return writeIndented(w, result)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
