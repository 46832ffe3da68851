package export

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/insight-cli/internal/model"
)

// Report is the run summary written next to the exported artifacts.
type Report struct {
	Summary         model.Summary          `yaml:"summary"`
	Segments        map[model.Segment]int  `yaml:"customer_segments"`
	Categories      []model.CategorySummary `yaml:"category_performance"`
	GeoStats        *model.GeoStats        `yaml:"geocoding,omitempty"`
	Recommendations []model.Recommendation `yaml:"recommendations,omitempty"`
}

// WriteReport writes a YAML summary of the run.
func WriteReport(result *model.Result, path string) error {
	report := Report{
		Summary:         result.Summary,
		Segments:        result.Rankings.Summary.SegmentCounts,
		Categories:      result.Categories.Summaries,
		GeoStats:        result.GeoStats,
		Recommendations: result.Recommendations,
	}
	data, err := yaml.Marshal(&report)
	if err != nil {
		return eris.Wrap(err, "export: marshal report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "export: write report %s", path)
	}
	return nil
}
