package config

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestDefaultConfig(t *testing.T) {
	c := NewDefaultConfig()

	if c.NodeURL != DefaultNodeURL {
		t.Fatalf("NodeURL should be %s, not %s", DefaultNodeURL, c.NodeURL)
	}
	if c.SubmitTimeout != DefaultSubmitTimeout || c.FetchTimeout != DefaultFetchTimeout {
		t.Fatalf("network timeouts should default to 10s")
	}
	if c.ScanTimeout != DefaultScanTimeout || c.ProbeTimeout != DefaultProbeTimeout {
		t.Fatalf("discovery timeouts should default to 5s")
	}
	if c.MaxCacheSize() != 100 {
		t.Fatalf("MaxCacheSize should be 100, not %d", c.MaxCacheSize())
	}
}

func TestMaxCacheSize(t *testing.T) {
	c := NewDefaultConfig()

	cases := []struct {
		size int
		want int
	}{
		{0, 100},
		{-3, 100},
		{10, 10},
		{100, 100},
		{5000, 100},
	}

	for _, tc := range cases {
		c.CacheSize = tc.size
		if got := c.MaxCacheSize(); got != tc.want {
			t.Fatalf("MaxCacheSize(%d) should be %d, not %d", tc.size, tc.want, got)
		}
	}
}

func TestSetDataDir(t *testing.T) {
	c := NewDefaultConfig()
	c.SetDataDir("/tmp/herd")

	if c.DatabaseDir != filepath.Join("/tmp/herd", DefaultBadgerFile) {
		t.Fatalf("DatabaseDir should follow DataDir, got %s", c.DatabaseDir)
	}

	c.Store = SQLiteStore
	if c.DatabasePath() != filepath.Join("/tmp/herd", DefaultSQLiteFile) {
		t.Fatalf("sqlite DatabasePath should be %s, got %s",
			filepath.Join("/tmp/herd", DefaultSQLiteFile), c.DatabasePath())
	}

	c.DatabaseDir = "/var/lib/herd.db"
	c.SetDataDir("/tmp/other")
	if c.DatabasePath() != "/var/lib/herd.db" {
		t.Fatalf("explicit database location should be kept, got %s", c.DatabasePath())
	}
}

func TestLogLevel(t *testing.T) {
	if LogLevel("warn") != logrus.WarnLevel {
		t.Fatalf("warn should parse to WarnLevel")
	}
	if LogLevel("garbage") != logrus.DebugLevel {
		t.Fatalf("unknown levels should default to DebugLevel")
	}
}
