// Package config persists per-project pipeline policy.
//
// The scale constants and confidence deltas the pipeline runs on are
// policy, not derived values, so they live in a project-local JSON file
// (.shardy/shardy.json) rather than in code. Loading converts the file
// into the validated Config structs of the core packages.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/HendryAvila/shardy/internal/assembler"
	"github.com/HendryAvila/shardy/internal/confidence"
	"github.com/HendryAvila/shardy/internal/sharder"
)

// Project file locations.
const (
	Dir  = ".shardy"
	File = "shardy.json"
)

// ShardingPolicy mirrors sharder.Config in its serialized form.
type ShardingPolicy struct {
	MaxShardSize    int  `json:"max_shard_size"`
	BoundaryDepth   int  `json:"boundary_depth"`
	PreserveContext bool `json:"preserve_context"`
}

// ScoringPolicy holds the scorer's tunable constants.
type ScoringPolicy struct {
	AmbiguityScale float64 `json:"ambiguity_scale"`
}

// AssemblyPolicy holds the assembler's tunable constants.
type AssemblyPolicy struct {
	BaseConfidence      int  `json:"base_confidence"`
	ComplexityLowDelta  int  `json:"complexity_low_delta"`
	ComplexityHighDelta int  `json:"complexity_high_delta"`
	NoDepsDelta         int  `json:"no_deps_delta"`
	ManyDepsDelta       int  `json:"many_deps_delta"`
	FeatureDelta        int  `json:"feature_delta"`
	ResearchDelta       int  `json:"research_delta"`
	ExtendedThreshold   int  `json:"extended_threshold"`
	MinSize             int  `json:"min_size"`
	MaxSize             int  `json:"max_size"`
	StrictShardMatch    bool `json:"strict_shard_match"`
}

// ProjectConfig is the persisted project policy.
type ProjectConfig struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Version     string         `json:"version"`
	Sharding    ShardingPolicy `json:"sharding"`
	Scoring     ScoringPolicy  `json:"scoring"`
	Assembly    AssemblyPolicy `json:"assembly"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

// NewProjectConfig creates a project config with default policy.
func NewProjectConfig(name, description string) *ProjectConfig {
	nowStr := time.Now().UTC().Format(time.RFC3339)
	sh := sharder.DefaultConfig()
	sc := confidence.DefaultConfig()
	as := assembler.DefaultConfig()

	return &ProjectConfig{
		Name:        name,
		Description: description,
		Version:     "0.1.0",
		Sharding: ShardingPolicy{
			MaxShardSize:    sh.MaxShardSize,
			BoundaryDepth:   sh.BoundaryDepth,
			PreserveContext: sh.PreserveContext,
		},
		Scoring: ScoringPolicy{
			AmbiguityScale: sc.AmbiguityScale,
		},
		Assembly: AssemblyPolicy{
			BaseConfidence:      as.BaseConfidence,
			ComplexityLowDelta:  as.ComplexityLowDelta,
			ComplexityHighDelta: as.ComplexityHighDelta,
			NoDepsDelta:         as.NoDepsDelta,
			ManyDepsDelta:       as.ManyDepsDelta,
			FeatureDelta:        as.FeatureDelta,
			ResearchDelta:       as.ResearchDelta,
			ExtendedThreshold:   as.ExtendedThreshold,
			MinSize:             as.MinSize,
			MaxSize:             as.MaxSize,
			StrictShardMatch:    as.StrictMatch,
		},
		CreatedAt: nowStr,
		UpdatedAt: nowStr,
	}
}

// ShardingConfig converts the policy into a sharder configuration.
func (c *ProjectConfig) ShardingConfig() sharder.Config {
	return sharder.Config{
		MaxShardSize:    c.Sharding.MaxShardSize,
		BoundaryDepth:   c.Sharding.BoundaryDepth,
		PreserveContext: c.Sharding.PreserveContext,
	}
}

// ScoringConfig converts the policy into a scorer configuration.
// Weights are fixed policy and are not exposed in the file.
func (c *ProjectConfig) ScoringConfig() confidence.Config {
	return confidence.Config{
		AmbiguityScale: c.Scoring.AmbiguityScale,
		Weights:        confidence.DefaultWeights(),
	}
}

// AssemblyConfig converts the policy into an assembler configuration.
func (c *ProjectConfig) AssemblyConfig() assembler.Config {
	return assembler.Config{
		BaseConfidence:      c.Assembly.BaseConfidence,
		ComplexityLowDelta:  c.Assembly.ComplexityLowDelta,
		ComplexityHighDelta: c.Assembly.ComplexityHighDelta,
		NoDepsDelta:         c.Assembly.NoDepsDelta,
		ManyDepsDelta:       c.Assembly.ManyDepsDelta,
		FeatureDelta:        c.Assembly.FeatureDelta,
		ResearchDelta:       c.Assembly.ResearchDelta,
		ExtendedThreshold:   c.Assembly.ExtendedThreshold,
		MinSize:             c.Assembly.MinSize,
		MaxSize:             c.Assembly.MaxSize,
		StrictMatch:         c.Assembly.StrictShardMatch,
	}
}

// ─── Paths ───────────────────────────────────────────────────────────────────

// ProjectDir returns the project's .shardy directory.
func ProjectDir(root string) string {
	return filepath.Join(root, Dir)
}

// ConfigPath returns the project config file path.
func ConfigPath(root string) string {
	return filepath.Join(root, Dir, File)
}

// ShardsDir returns the directory shard files are written to.
func ShardsDir(root string) string {
	return filepath.Join(root, Dir, "shards")
}

// Exists reports whether a project config exists under root.
func Exists(root string) bool {
	_, err := os.Stat(ConfigPath(root))
	return err == nil
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store abstracts config persistence so tools depend on an interface,
// not on the filesystem.
type Store interface {
	Load(root string) (*ProjectConfig, error)
	Save(root string, cfg *ProjectConfig) error
}

// FileStore persists the project config as JSON under .shardy/.
type FileStore struct{}

// NewFileStore creates a FileStore.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Load reads and parses the project config.
func (s *FileStore) Load(root string) (*ProjectConfig, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config: project not initialized — run shardy_init first")
		}
		return nil, fmt.Errorf("config: reading %s: %w", File, err)
	}

	var cfg ProjectConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", File, err)
	}
	return &cfg, nil
}

// Save writes the project config, creating directories as needed and
// refreshing the update timestamp.
func (s *FileStore) Save(root string, cfg *ProjectConfig) error {
	if err := os.MkdirAll(ProjectDir(root), 0o755); err != nil {
		return fmt.Errorf("config: creating %s: %w", Dir, err)
	}

	cfg.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encoding %s: %w", File, err)
	}
	if err := os.WriteFile(ConfigPath(root), data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", File, err)
	}
	return nil
}
