package metacat

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// load metacat config from a file.
//
// args:
//   - filepath: filepath refers a config file.
//
// returns *Config, error:
//
//	When loading success, returns `(*Config, nil)`.
//	Otherwise, returns `(nil, error)`.
func LoadConfig(filepath string) (*Config, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content)
}

func Unmarshal(conf []byte) (out *Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("misconfiguration: %v", r)
		}
	}()

	var _out *ConfigMarshall
	if err := yaml.Unmarshal(conf, &_out); err != nil {
		return nil, err
	}
	if _out == nil {
		return nil, fmt.Errorf("misconfiguration: empty config")
	}
	out = TrySeal(_out)
	return out, nil
}

type Marshalled[S any] interface {
	trySeal(string) S
}

// seal marshalled object.
//
// this function CAN CAUSE PANIC if misconfiguration is found.
//
// All types named `pkg/configs/metacat.XxxMarshall` are `Marshalled[*Xxx]` .
func TrySeal[S any](conf Marshalled[S]) S {
	return conf.trySeal("(root)")
}

type ConfigMarshall struct {
	Source     *SourceConfigMarshall     `yaml:"source"`
	Relational *RelationalConfigMarshall `yaml:"relational"`
	Catalogue  *CatalogueConfigMarshall  `yaml:"catalogue"`
	Quality    *QualityConfigMarshall    `yaml:"quality,omitempty"`
}

var _ Marshalled[*Config] = &ConfigMarshall{}

func (c *ConfigMarshall) trySeal(path string) *Config {
	if c.Source == nil {
		panic(path + ".source is required")
	}
	if c.Relational == nil {
		panic(path + ".relational is required")
	}
	if c.Catalogue == nil {
		panic(path + ".catalogue is required")
	}
	quality := c.Quality
	if quality == nil {
		quality = &QualityConfigMarshall{}
	}
	return &Config{
		source:     c.Source.trySeal(path + ".source"),
		relational: c.Relational.trySeal(path + ".relational"),
		catalogue:  c.Catalogue.trySeal(path + ".catalogue"),
		quality:    quality.trySeal(path + ".quality"),
	}
}

type SourceConfigMarshall struct {
	Database   string `yaml:"database"`
	Collection string `yaml:"collection,omitempty"`
}

func (s *SourceConfigMarshall) trySeal(path string) *SourceConfig {
	if s.Database == "" {
		panic(path + ".database is required")
	}
	collection := s.Collection
	if collection == "" {
		collection = "series"
	}
	if collection != "series" && collection != "modality" {
		panic(path + `.collection should be one of "series"|"modality"`)
	}
	return &SourceConfig{database: s.Database, collection: collection}
}

type RelationalConfigMarshall struct {
	Staging string `yaml:"staging"`
	Live    string `yaml:"live"`
}

func (r *RelationalConfigMarshall) trySeal(path string) *RelationalConfig {
	if r.Staging == "" && r.Live == "" {
		panic(path + " needs at least one of .staging or .live")
	}
	return &RelationalConfig{staging: r.Staging, live: r.Live}
}

type CatalogueConfigMarshall struct {
	Database string `yaml:"database"`
}

func (c *CatalogueConfigMarshall) trySeal(path string) *CatalogueConfig {
	if c.Database == "" {
		panic(path + ".database is required")
	}
	return &CatalogueConfig{database: c.Database}
}

type QualityConfigMarshall struct {
	Workers  int    `yaml:"workers,omitempty"`
	Priority string `yaml:"priority,omitempty"`
}

func (q *QualityConfigMarshall) trySeal(path string) *QualityConfig {
	workers := q.Workers
	if workers == 0 {
		workers = 50
	}
	if workers < 0 {
		panic(path + ".workers should be positive")
	}
	priority := q.Priority
	if priority == "" {
		priority = "all"
	}
	switch priority {
	case "all", "available", "public":
	default:
		panic(path + `.priority should be one of "all"|"available"|"public"`)
	}
	return &QualityConfig{workers: workers, priority: priority}
}
