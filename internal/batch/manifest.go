package batch

import (
	"encoding/json"
	"fmt"
	"os"
)

// PairDef describes one rectified stereo pair to match.
type PairDef struct {
	Name  string `json:"name"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

// LoadPairs reads the JSON pair list driving a batch run.
func LoadPairs(path string) ([]PairDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("batch: read %s: %w", path, err)
	}
	var pairs []PairDef
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("batch: parse %s: %w", path, err)
	}
	return pairs, nil
}

// ManifestEntry represents one pair in the output manifest.
type ManifestEntry struct {
	Name          string  `json:"name"`
	Gray          string  `json:"gray"`
	Color         string  `json:"color"`
	ValidFraction float64 `json:"valid_fraction"`
}

// WriteManifest writes the successful results as a JSON manifest to path;
// failed pairs are left out.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, 0, len(results))
	for _, r := range results {
		if !r.Success {
			continue
		}
		entries = append(entries, ManifestEntry{
			Name:          r.Name,
			Gray:          fmt.Sprintf("%s-disparity.png", r.Name),
			Color:         fmt.Sprintf("%s-disparity-color.webp", r.Name),
			ValidFraction: r.ValidFraction,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
