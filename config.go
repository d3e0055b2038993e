package rebrander

import (
	"os"

	"gopkg.in/yaml.v3"
)

const DefaultFilePermissions = 0644

type MappingPair struct {
	Old string `yaml:"old"`
	New string `yaml:"new"`
}

type Config struct {
	Package      MappingPair `yaml:"package"`
	AppName      MappingPair `yaml:"app_name"`
	Scheme       MappingPair `yaml:"scheme"`
	ServiceClass MappingPair `yaml:"service_class"`
	Description  MappingPair `yaml:"description"`

	// ExtraStrings are auxiliary display-string pairs rewritten with the
	// same boundary rules as the description mapping.
	ExtraStrings []MappingPair `yaml:"extra_strings"`

	// ResourceOverrides force the value of named <string> resources in
	// structured-markup files regardless of their old content.
	ResourceOverrides map[string]string `yaml:"resource_overrides"`

	// ProtectedLiterals are never rewritten even when an old identifier
	// occurs inside them (native library names and the like).
	ProtectedLiterals []string `yaml:"protected_literals"`

	// SourceRoot is the project-relative directory that contains the
	// package hierarchy to relocate, e.g. "app/src/main/kotlin".
	SourceRoot string `yaml:"source_root"`

	// Files restricts the run to an explicit in-scope set of
	// project-relative paths; empty means enumerate by extension.
	Files []string `yaml:"files"`

	// ManifestFiles are load-bearing: an I/O failure on one aborts the
	// run instead of being collected per-file.
	ManifestFiles []string `yaml:"manifest_files"`

	IncludeExts []string `yaml:"include_exts"`
	ExcludeDirs []string `yaml:"exclude_dirs"`
	Workers     int      `yaml:"workers"`
	Force       bool     `yaml:"force"`
}

func DefaultConfig() *Config {
	return &Config{
		IncludeExts:   []string{".kt", ".java", ".xml", ".gradle", ".properties", ".txt", ".md", ".dart"},
		ExcludeDirs:   []string{".git", "build", ".gradle"},
		ManifestFiles: []string{"AndroidManifest.xml"},
		Workers:       4,
	}
}

func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Mappings flattens the configured pairs into the ordered mapping set
// consumed by NewRegistry. Pairs with an empty old value are omitted so
// a config may rebrand only a subset of identifiers.
func (c *Config) Mappings() []Mapping {
	pairs := []struct {
		pair MappingPair
		kind MappingKind
	}{
		{c.Package, KindPackage},
		{c.AppName, KindAppName},
		{c.Scheme, KindScheme},
		{c.ServiceClass, KindServiceClass},
		{c.Description, KindDescription},
	}

	var mappings []Mapping
	for _, p := range pairs {
		if p.pair.Old == "" && p.pair.New == "" {
			continue
		}
		mappings = append(mappings, Mapping{Old: p.pair.Old, New: p.pair.New, Kind: p.kind})
	}
	for _, extra := range c.ExtraStrings {
		mappings = append(mappings, Mapping{Old: extra.Old, New: extra.New, Kind: KindDescription})
	}
	return mappings
}
