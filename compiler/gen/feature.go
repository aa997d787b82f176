package gen

import (
	"os"
	"path/filepath"
)

var (
	// FeatureGraphQL provides a feature-flag for the graphql target.
	FeatureGraphQL = Feature{
		Name:        "graphql",
		Stage:       Beta,
		Default:     false,
		Description: "Emits a GraphQL schema fragment per entity, including enum and scalar declarations",
		cleanup: func(c *Config) error {
			return os.RemoveAll(filepath.Join(c.OutDir, "graphql"))
		},
	}

	// FeatureManifest provides a feature-flag for persisting the run
	// manifest next to the generated artifacts.
	FeatureManifest = Feature{
		Name:        "manifest",
		Stage:       Alpha,
		Default:     false,
		Description: "Writes the run manifest to manifest.json in the output directory",
		cleanup: func(c *Config) error {
			err := os.Remove(filepath.Join(c.OutDir, "manifest.json"))
			if os.IsNotExist(err) {
				return nil
			}
			return err
		},
	}

	// AllFeatures holds a list of all feature-flags.
	AllFeatures = []Feature{
		FeatureGraphQL,
		FeatureManifest,
	}
)

// FeatureStage describes the stage of the codegen feature.
type FeatureStage int

const (
	_ FeatureStage = iota

	// Experimental features are in development, and actively being
	// tested on the integration environment.
	Experimental

	// Alpha features are features whose initial development was
	// finished, but breaking-changes to their APIs are expected.
	Alpha

	// Beta features are Alpha features that were added to the
	// documentation, and no breaking-changes are expected for them.
	Beta

	// Stable features are Beta features that have been running in
	// production for a while.
	Stable
)

// A Feature of the faber codegen.
type Feature struct {
	// Name of the feature.
	Name string

	// Stage of the feature.
	Stage FeatureStage

	// Default values indicates if this feature is enabled by default.
	Default bool

	// A Description of this feature.
	Description string

	// cleanup used to cleanup all changes when a feature-flag is removed.
	// e.g. delete files from previous codegen runs.
	cleanup func(*Config) error
}

// Features maps feature names to their definitions. Unknown names are
// a configuration error.
func Features(names ...string) ([]Feature, error) {
	fs := make([]Feature, 0, len(names))
	for _, name := range names {
		f, ok := featureByName(name)
		if !ok {
			return nil, NewConfigError("Features", name, "unknown feature")
		}
		fs = append(fs, f)
	}
	return fs, nil
}

func featureByName(name string) (Feature, bool) {
	for _, f := range AllFeatures {
		if f.Name == name {
			return f, true
		}
	}
	return Feature{}, false
}

// cleanupFeatures removes the outputs of disabled features left
// behind by previous runs over the same output directory.
func cleanupFeatures(c *Config) error {
	for _, f := range AllFeatures {
		if f.cleanup == nil || c.FeatureEnabled(f.Name) {
			continue
		}
		if err := f.cleanup(c); err != nil {
			return err
		}
	}
	return nil
}
