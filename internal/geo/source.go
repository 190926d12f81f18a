package geo

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
)

//go:embed registry/punjab.yaml
var punjabRegistry []byte

var validate = validator.New()

// Source supplies the full district registry.
type Source interface {
	Load() ([]domain.DistrictLocation, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() ([]domain.DistrictLocation, error)

func (f SourceFunc) Load() ([]domain.DistrictLocation, error) { return f() }

// StaticSource serves a fixed set of locations, mostly for tests.
func StaticSource(locs ...domain.DistrictLocation) Source {
	return SourceFunc(func() ([]domain.DistrictLocation, error) {
		return append([]domain.DistrictLocation(nil), locs...), nil
	})
}

// EmbeddedSource serves the built-in Punjab registry.
func EmbeddedSource() Source {
	return SourceFunc(func() ([]domain.DistrictLocation, error) {
		return ParseRegistry(punjabRegistry)
	})
}

// FileSource reads a YAML registry from disk on every Load, so Reload picks up edits.
func FileSource(path string) Source {
	return SourceFunc(func() ([]domain.DistrictLocation, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read registry: %w", err)
		}
		return ParseRegistry(data)
	})
}

type registryFile struct {
	Districts []domain.DistrictLocation `yaml:"districts" validate:"required,min=1,dive"`
}

// ParseRegistry decodes and validates a YAML registry document of the form
//
//	districts:
//	  - id: lahore
//	    name: Lahore
//	    lat: 31.5204
//	    lon: 74.3587
func ParseRegistry(data []byte) ([]domain.DistrictLocation, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("invalid registry: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("invalid registry: %w", err)
	}
	return f.Districts, nil
}
