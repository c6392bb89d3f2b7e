package domain

import "strings"

// DifferenceReport summarizes what an equivalence oracle found between two representations.
type DifferenceReport struct {
	Additions     int      `json:"additions"`
	Deletions     int      `json:"deletions"`
	Modifications int      `json:"modifications,omitempty"` // advisory only
	Lines         []string `json:"lines,omitempty"`
}

// Equivalent reports whether the oracle found nothing added and nothing removed.
// Modifications never influence the verdict.
func (d DifferenceReport) Equivalent() bool {
	return d.Additions == 0 && d.Deletions == 0
}

// ParseDifferences classifies raw diff output line by line.
// A trimmed line starting with '>' is an addition, '<' a deletion. Lines containing
// "in function" or "differs" are counted as modifications.
func ParseDifferences(output string) DifferenceReport {
	var report DifferenceReport
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, ">"):
			report.Additions++
			report.Lines = append(report.Lines, line)
		case strings.HasPrefix(trimmed, "<"):
			report.Deletions++
			report.Lines = append(report.Lines, line)
		case strings.Contains(trimmed, "in function"), strings.Contains(trimmed, "differs"):
			report.Modifications++
		}
	}
	return report
}
