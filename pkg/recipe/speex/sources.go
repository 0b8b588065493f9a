package speex

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/packsmith/speexpkg/internal/fetch"
	"github.com/packsmith/speexpkg/pkg/recipe"
)

//go:embed sources.yml
var sourcesYAML []byte

type sourceData struct {
	Sources map[string]fetch.Source `yaml:"sources"`
}

// SourceForVersion resolves a version string to its download descriptor.
// Versions without a mapping fail with ErrFetch before anything is
// downloaded.
func SourceForVersion(version string) (fetch.Source, error) {
	var data sourceData
	if err := yaml.Unmarshal(sourcesYAML, &data); err != nil {
		return fetch.Source{}, fmt.Errorf("%w: parsing source data: %v", recipe.ErrFetch, err)
	}

	src, ok := data.Sources[version]
	if !ok {
		return fetch.Source{}, fmt.Errorf("%w: no source mapping for version %q", recipe.ErrFetch, version)
	}
	return src, nil
}

// Versions returns every version with a known source mapping.
func Versions() ([]string, error) {
	var data sourceData
	if err := yaml.Unmarshal(sourcesYAML, &data); err != nil {
		return nil, fmt.Errorf("%w: parsing source data: %v", recipe.ErrFetch, err)
	}
	versions := make([]string, 0, len(data.Sources))
	for v := range data.Sources {
		versions = append(versions, v)
	}
	return versions, nil
}
