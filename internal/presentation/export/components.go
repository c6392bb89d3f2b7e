package export

import (
	"encoding/json"
	"io"

	"github.com/aretw0/passgraph/pkg/domain"
)

// ComponentReport is the serialized connectivity summary of a run.
// Only components with two or more members are listed.
type ComponentReport struct {
	Root   string     `json:"root,omitempty"`
	Strong [][]string `json:"strongly_connected"`
	Weak   [][]string `json:"weakly_connected"`
}

// Components extracts the component report from a record.
func Components(rec *domain.RunRecord) ComponentReport {
	report := ComponentReport{Strong: [][]string{}, Weak: [][]string{}}
	if rec == nil {
		return report
	}
	report.Root = rec.Root
	if rec.Strong != nil {
		report.Strong = rec.Strong
	}
	if rec.Weak != nil {
		report.Weak = rec.Weak
	}
	return report
}

// WriteComponents writes the component report as indented JSON.
func WriteComponents(w io.Writer, rec *domain.RunRecord) error {
	if rec == nil || rec.IsEmpty() {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Components(rec))
}
