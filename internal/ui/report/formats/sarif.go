// # internal/ui/report/formats/sarif.go
package formats

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"serialguard/internal/core/ports"
	"serialguard/internal/shared/version"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"

	ruleIDSerialization = "SER001"
)

// sarifReport is the top-level SARIF document.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	FullDescription  *sarifMessage          `json:"fullDescription,omitempty"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID     string            `json:"ruleId"`
	Level      string            `json:"level"`
	Message    sarifMessage      `json:"message"`
	Locations  []sarifLocation   `json:"locations,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
	LogicalLocations []sarifLogical        `json:"logicalLocations,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
}

type sarifLogical struct {
	FullyQualifiedName string `json:"fullyQualifiedName"`
	Kind               string `json:"kind"`
}

// GenerateSARIF builds a SARIF v2.1.0 document from inspection findings.
// All file URIs are made relative to projectRoot; absolute paths are never
// included so that reports are safe to share.
func GenerateSARIF(projectRoot string, findings []ports.Finding) ([]byte, error) {
	results := make([]sarifResult, 0, len(findings))
	for _, f := range findings {
		loc := sarifLocation{
			PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{
					URI:       relativeURI(projectRoot, f.Path),
					URIBaseID: "%SRCROOT%",
				},
			},
		}
		if f.Line > 0 {
			loc.PhysicalLocation.Region = &sarifRegion{
				StartLine:   f.Line,
				StartColumn: f.Column,
			}
		}
		if f.Class != "" {
			loc.LogicalLocations = []sarifLogical{{FullyQualifiedName: f.Class, Kind: "type"}}
		}

		props := map[string]string{}
		if f.Evidence != "" {
			props["evidence"] = f.Evidence
		}
		if f.Marker != "" {
			props["marker"] = f.Marker
		}
		if len(props) == 0 {
			props = nil
		}

		results = append(results, sarifResult{
			RuleID:     ruleIDSerialization,
			Level:      "warning",
			Message:    sarifMessage{Text: findingMessage(f)},
			Locations:  []sarifLocation{loc},
			Properties: props,
		})
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "serialguard",
						Version: version.Version,
						Rules:   buildSARIFRules(),
					},
				},
				Results: results,
			},
		},
	}

	return json.MarshalIndent(report, "", "  ")
}

func buildSARIFRules() []sarifRule {
	return []sarifRule{
		{
			ID:               ruleIDSerialization,
			Name:             "SerializationSensitiveClass",
			ShortDescription: sarifMessage{Text: "Class takes part in a custom serialization contract."},
			FullDescription: &sarifMessage{Text: "The class carries a serialization marker, implements a marker interface, " +
				"or inherits from a class that does. Changes may break previously serialized data."},
			DefaultConfig: sarifRuleDefaultConfig{Level: "warning"},
		},
	}
}

func findingMessage(f ports.Finding) string {
	if f.Class == "" {
		return f.Message
	}
	return fmt.Sprintf("%s: %s", f.Class, f.Message)
}

// relativeURI converts an absolute file path to a forward-slash relative URI
// anchored at projectRoot. If the path is already relative or projectRoot is
// empty, the original path (with forward slashes) is returned.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		rel, err := filepath.Rel(projectRoot, filePath)
		if err == nil {
			filePath = rel
		}
	}
	// SARIF URIs use forward slashes.
	return filepath.ToSlash(filePath)
}
