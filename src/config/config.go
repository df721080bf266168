package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/openherd/openherd/src/common"
	"github.com/openherd/openherd/src/geo"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Store backends.
const (
	InmemStore  = "inmem"
	BadgerStore = "badger"
	SQLiteStore = "sqlite"
)

// Default filenames.
const (
	// DefaultBadgerFile is the default name of the folder containing the Badger
	// database
	DefaultBadgerFile = "badger_db"

	// DefaultSQLiteFile is the default name of the SQLite database file.
	DefaultSQLiteFile = "openherd.db"

	// DefaultConfigName is the name of the configuration file, without
	// extension, looked up in the data directory.
	DefaultConfigName = "openherd"
)

// Default configuration values.
const (
	DefaultLogLevel          = "info"
	DefaultNodeURL           = "http://127.0.0.1:3000"
	DefaultStore             = BadgerStore
	DefaultAutoDiscovery     = true
	DefaultDistanceUnit      = geo.Kilometers
	DefaultSubmitTimeout     = 10 * time.Second
	DefaultFetchTimeout      = 10 * time.Second
	DefaultScanTimeout       = 5 * time.Second
	DefaultProbeTimeout      = 5 * time.Second
	DefaultSyncInterval      = 30 * time.Second
	DefaultDiscoveryInterval = 60 * time.Second
	DefaultCacheSize         = 100
	DefaultServiceAddr       = ":3000"
	DefaultAdvertise         = true
	DefaultOutboxSize        = 1000
)

// Settings are the user preferences consumed by the engine. They are passed
// by reference into the operations that need them and never modified there.
type Settings struct {
	// NodeURL is the base URL of the primary node. It is always the first
	// broadcast and fetch target.
	NodeURL string `mapstructure:"node" json:"nodeUrl"`

	// Privacy controls how coordinates are perturbed before a post is signed.
	Privacy geo.PrivacyConfig `mapstructure:",squash" json:"privacy"`

	// AutoDiscovery enables periodic mDNS discovery of nodes on the local
	// network.
	AutoDiscovery bool `mapstructure:"auto-discovery" json:"autoDiscovery"`

	// DistanceUnit is the unit used when displaying distances: km or mi.
	DistanceUnit string `mapstructure:"distance-unit" json:"distanceUnit"`
}

// Config contains all the configuration properties of an OpenHerd client and
// node.
type Config struct {
	// DataDir is the top-level directory containing OpenHerd configuration and
	// data
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// Store selects the blob store backend: inmem, badger or sqlite.
	Store string `mapstructure:"store"`

	// DatabaseDir is the location of the database files. It is a directory for
	// badger and a file for sqlite.
	DatabaseDir string `mapstructure:"db"`

	Settings `mapstructure:",squash"`

	// SubmitTimeout bounds a single POST to a node's inbox.
	SubmitTimeout time.Duration `mapstructure:"submit-timeout"`

	// FetchTimeout bounds a single GET of a node's outbox.
	FetchTimeout time.Duration `mapstructure:"fetch-timeout"`

	// ScanTimeout bounds one mDNS discovery scan.
	ScanTimeout time.Duration `mapstructure:"scan-timeout"`

	// ProbeTimeout bounds a reachability probe against a single node.
	ProbeTimeout time.Duration `mapstructure:"probe-timeout"`

	// SyncInterval is the period of the pending queue reconciliation loop.
	SyncInterval time.Duration `mapstructure:"sync-interval"`

	// DiscoveryInterval is the period of automatic discovery scans.
	DiscoveryInterval time.Duration `mapstructure:"discovery-interval"`

	// CacheSize is the max number of envelopes in the cached feed snapshot. It
	// cannot exceed 100.
	CacheSize int `mapstructure:"cache-size"`

	// ServiceAddr is the address:port where a node serves its inbox and
	// outbox.
	ServiceAddr string `mapstructure:"service-listen"`

	// Advertise publishes the node on the local network with mDNS.
	Advertise bool `mapstructure:"advertise"`

	// Moniker is the mDNS instance name of the node. A random one is used if
	// empty.
	Moniker string `mapstructure:"moniker"`

	// OutboxSize is the max number of envelopes a node keeps and serves.
	OutboxSize int `mapstructure:"outbox-size"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:     DefaultDataDir(),
		LogLevel:    DefaultLogLevel,
		Store:       DefaultStore,
		DatabaseDir: DefaultDatabaseDir(),
		Settings: Settings{
			NodeURL:       DefaultNodeURL,
			Privacy:       geo.DefaultPrivacyConfig(),
			AutoDiscovery: DefaultAutoDiscovery,
			DistanceUnit:  DefaultDistanceUnit,
		},
		SubmitTimeout:     DefaultSubmitTimeout,
		FetchTimeout:      DefaultFetchTimeout,
		ScanTimeout:       DefaultScanTimeout,
		ProbeTimeout:      DefaultProbeTimeout,
		SyncInterval:      DefaultSyncInterval,
		DiscoveryInterval: DefaultDiscoveryInterval,
		CacheSize:         DefaultCacheSize,
		ServiceAddr:       DefaultServiceAddr,
		Advertise:         DefaultAdvertise,
		OutboxSize:        DefaultOutboxSize,
	}

	return config
}

// NewTestConfig returns a config object with default values, an in-memory
// store, short timeouts, and a special logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.Store = InmemStore
	config.AutoDiscovery = false
	config.SubmitTimeout = time.Second
	config.FetchTimeout = time.Second
	config.ScanTimeout = 200 * time.Millisecond
	config.ProbeTimeout = 200 * time.Millisecond
	config.logger = common.NewTestLogger(t, level)
	return config
}

// SetDataDir sets the top-level directory, and updates the database location
// if it is currently set to the default value. If it is not the default, the
// user has explicitely set it to something else, so avoid changing it here.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// DatabasePath returns the location of the database for the configured store
// backend.
func (c *Config) DatabasePath() string {
	if c.Store == SQLiteStore && c.DatabaseDir == filepath.Join(c.DataDir, DefaultBadgerFile) {
		return filepath.Join(c.DataDir, DefaultSQLiteFile)
	}
	return c.DatabaseDir
}

// MaxCacheSize returns CacheSize bounded to the [1, 100] interval.
func (c *Config) MaxCacheSize() int {
	switch {
	case c.CacheSize <= 0:
		return DefaultCacheSize
	case c.CacheSize > DefaultCacheSize:
		return DefaultCacheSize
	default:
		return c.CacheSize
	}
}

// Logger returns a formatted logrus Entry, with prefix set to "openherd".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
	}
	return c.logger.WithField("prefix", "openherd")
}

// BaseLogger exposes the underlying logrus Logger so that hooks can be
// attached to it.
func (c *Config) BaseLogger() *logrus.Logger {
	c.Logger()
	return c.logger
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir return the default directory name for top-level OpenHerd
// config based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".OpenHerd")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "OpenHerd")
		} else {
			return filepath.Join(home, ".openherd")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
