package wallet

import "fmt"

// minMaterialLength matches the registry's floor for fingerprint template
// material. Shorter inputs do not carry enough entropy to anchor an account.
const minMaterialLength = 32

// QualityReport describes whether raw fingerprint template material is strong
// enough to anchor an identity. It never contains the material itself.
type QualityReport struct {
	Length      int      `json:"length"`
	UniqueBytes int      `json:"unique_bytes"`
	Acceptable  bool     `json:"acceptable"`
	Issues      []string `json:"issues,omitempty"`
}

// AnalyzeQuality inspects raw template material before it is hashed. The
// checks are heuristic: they catch truncated captures and constant-fill test
// inputs, not sophisticated forgeries.
func AnalyzeQuality(material string) QualityReport {
	report := QualityReport{Length: len(material)}

	seen := make(map[byte]struct{})
	for i := 0; i < len(material); i++ {
		seen[material[i]] = struct{}{}
	}
	report.UniqueBytes = len(seen)

	if report.Length < minMaterialLength {
		report.Issues = append(report.Issues,
			fmt.Sprintf("material too short: %d bytes, need %d", report.Length, minMaterialLength))
	}
	if report.Length > 0 && report.UniqueBytes < 8 {
		report.Issues = append(report.Issues,
			fmt.Sprintf("low byte diversity: %d distinct values", report.UniqueBytes))
	}

	report.Acceptable = len(report.Issues) == 0
	return report
}
