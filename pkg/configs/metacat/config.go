package metacat

// Configuration for one metacat batch run.
//
// to get `Config` instance, use `TrySeal(ConfigMarshall)` .
type Config struct {
	source     *SourceConfig
	relational *RelationalConfig
	catalogue  *CatalogueConfig
	quality    *QualityConfig
}

func (c *Config) Source() *SourceConfig {
	return c.source
}

func (c *Config) Relational() *RelationalConfig {
	return c.relational
}

func (c *Config) Catalogue() *CatalogueConfig {
	return c.catalogue
}

func (c *Config) Quality() *QualityConfig {
	return c.quality
}

// Configuration for the raw document store.
type SourceConfig struct {
	database   string
	collection string
}

// Database holding the raw records.
func (s *SourceConfig) Database() string {
	return s.database
}

// Collection the counts and discovery are based on.
// "series" = the series-level collection (the default);
// "modality" = one collection per modality, named image_<modality>.
func (s *SourceConfig) Collection() string {
	return s.collection
}

// Configuration for the relational store, one connection string per stage.
type RelationalConfig struct {
	staging string
	live    string
}

// Connection string for the Staging-stage database.
func (r *RelationalConfig) Staging() string {
	return r.staging
}

// Connection string for the Live-stage database.
func (r *RelationalConfig) Live() string {
	return r.live
}

// Configuration for the catalogue store.
type CatalogueConfig struct {
	database string
}

// Database holding the modalities/tags collections.
func (c *CatalogueConfig) Database() string {
	return c.database
}

// Configuration for the tag quality fan-out.
type QualityConfig struct {
	workers  int
	priority string
}

// How many tags are processed concurrently. default = 50
func (q *QualityConfig) Workers() int {
	return q.workers
}

// Which tags to process: "all", "available" or "public". default = "all"
func (q *QualityConfig) Priority() string {
	return q.priority
}
