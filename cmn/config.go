package cmn

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/shardql/shardql/cmn/atomic"
)

// CacheTierConfig describes one tier (memory or disk) of the file-data
// cache, and/or the eviction-policy name applied to it.
type CacheTierConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Capacity int64  `yaml:"capacity"`   // bytes
	Policy   string `yaml:"policy"`     // "lru" | "fifo"; unknown -> "lru"
	Path     string `yaml:"path"`       // disk tier only
}

// GRPCConfig configures the leader<->leaf streaming RPC transport.
type GRPCConfig struct {
	MaxMessageSize int    `yaml:"max_message_size"`
	OrgHeaderKey   string `yaml:"org_header_key"`
}

// LimitConfig configures admission and timeout behavior.
type LimitConfig struct {
	QueryTimeout time.Duration `yaml:"query_timeout"`
	CPUNum       int           `yaml:"cpu_num"`
}

// Config is shardql's process-wide configuration, constructed once at
// startup and accessed exclusively via GCO, matching the teacher's
// cmn.GCO / cmn.Config pattern (see ais/target.go: cmn.GCO.Get()).
type Config struct {
	MemoryCache        CacheTierConfig `yaml:"memory_cache"`
	DiskCache          CacheTierConfig `yaml:"disk_cache"`
	ResultCacheEnabled bool            `yaml:"result_cache_enabled"`
	ResultCacheDir     string          `yaml:"result_cache_dir"`
	ColumnTimestamp    string          `yaml:"column_timestamp"`
	GRPC               GRPCConfig      `yaml:"grpc"`
	Limit              LimitConfig     `yaml:"limit"`
	PrintKeySQL        bool            `yaml:"print_key_sql"`
}

// DefaultConfig returns the zero-configuration defaults a freshly started
// node runs with absent an on-disk config file.
func DefaultConfig() *Config {
	return &Config{
		MemoryCache: CacheTierConfig{Enabled: true, Capacity: 512 << 20, Policy: "lru"},
		DiskCache:   CacheTierConfig{Enabled: true, Capacity: 10 << 30, Policy: "lru", Path: "/var/lib/shardql/filedata"},
		ResultCacheEnabled: true,
		ResultCacheDir:     "/var/lib/shardql/results",
		ColumnTimestamp:    "_timestamp",
		GRPC: GRPCConfig{
			MaxMessageSize: 64 << 20,
			OrgHeaderKey:   "x-shardql-org-id",
		},
		Limit: LimitConfig{
			QueryTimeout: 30 * time.Second,
			CPUNum:       0,
		},
	}
}

// globalConfigOwner is the single process-wide, atomically-swapped
// holder of *Config, reproducing the teacher's cmn.GCO ("global config
// owner") singleton exactly: constructed once at startup, read by
// reference everywhere else, mutated only through BeginUpdate/CommitUpdate
// copy-on-write.
type globalConfigOwner struct {
	mu  sync.Mutex // serializes concurrent BeginUpdate callers
	ptr atomic.Pointer[Config]
}

// GCO is the package-wide singleton, mirroring cmn.GCO in the teacher.
var GCO = &globalConfigOwner{}

func init() {
	GCO.ptr.Store(DefaultConfig())
}

// Get returns the current, immutable configuration snapshot.
func (owner *globalConfigOwner) Get() *Config { return owner.ptr.Load() }

// BeginUpdate locks out other writers and returns a mutable clone of the
// current config for the caller to modify and pass to CommitUpdate.
func (owner *globalConfigOwner) BeginUpdate() *Config {
	owner.mu.Lock()
	clone := *owner.ptr.Load()
	return &clone
}

// CommitUpdate atomically publishes clone as the new current config and
// releases the writer lock taken by BeginUpdate.
func (owner *globalConfigOwner) CommitUpdate(clone *Config) {
	owner.ptr.Store(clone)
	owner.mu.Unlock()
}

// DiscardUpdate releases the writer lock without publishing, for callers
// that abandon a BeginUpdate after validation fails.
func (owner *globalConfigOwner) DiscardUpdate() {
	owner.mu.Unlock()
}

// LoadYAML reads a YAML file over DefaultConfig and returns the result;
// it does not install it as the process config (GCO), matching the teacher's YAML-backed config rendering (direct
// gopkg.in/yaml.v2 dependency in cmd/cli/go.mod).
func LoadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
