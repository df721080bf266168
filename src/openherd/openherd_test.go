package openherd

import (
	"context"
	"io/ioutil"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/openherd/openherd/src/config"
	"github.com/openherd/openherd/src/discovery"
	"github.com/openherd/openherd/src/geo"
	onet "github.com/openherd/openherd/src/net"
	"github.com/openherd/openherd/src/post"
	"github.com/sirupsen/logrus"
)

func noScan() discovery.Scanner {
	return discovery.ScannerFunc(func(context.Context) ([]discovery.Record, error) {
		return nil, nil
	})
}

func TestInitInmem(t *testing.T) {
	conf := config.NewTestConfig(t, logrus.DebugLevel)
	conf.DistanceUnit = geo.Miles

	engine := NewOpenHerd(conf)
	engine.Connectivity = onet.NewStaticConnectivity(false)
	engine.Scanner = noScan()

	if err := engine.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer engine.Close()

	settings, found, err := LoadSettings(engine.Store)
	if err != nil || !found {
		t.Fatalf("settings should be saved: %v", err)
	}
	if settings.DistanceUnit != geo.Miles || settings.NodeURL != conf.NodeURL {
		t.Fatalf("unexpected settings %+v", settings)
	}
	if settings.Privacy != conf.Privacy {
		t.Fatalf("privacy settings should round trip")
	}

	if _, _, err := engine.Node.Post(context.Background(), post.Request{Text: "offline"}); err != nil {
		t.Fatal(err)
	}
	if engine.Node.Queue().Len() != 1 {
		t.Fatalf("offline post should be queued")
	}
}

func TestInitRejectsBadPrivacy(t *testing.T) {
	conf := config.NewTestConfig(t, logrus.DebugLevel)
	conf.Privacy.MinDistance = 10
	conf.Privacy.MaxDistance = 1

	if err := NewOpenHerd(conf).Init(); err == nil {
		t.Fatalf("inconsistent privacy settings should fail Init")
	}
}

func TestInitPersistentStores(t *testing.T) {
	for _, backend := range []string{config.BadgerStore, config.SQLiteStore} {
		dir, err := ioutil.TempDir("", "openherd")
		if err != nil {
			t.Fatal(err)
		}

		conf := config.NewTestConfig(t, logrus.DebugLevel)
		conf.Store = backend
		conf.DatabaseDir = config.DefaultDatabaseDir()
		conf.SetDataDir(dir)

		engine := NewOpenHerd(conf)
		engine.Connectivity = onet.NewStaticConnectivity(false)
		engine.Scanner = noScan()
		if err := engine.Init(); err != nil {
			t.Fatalf("%s: Init: %v", backend, err)
		}
		engine.Node.Post(context.Background(), post.Request{Text: "persisted"})
		if err := engine.Close(); err != nil {
			t.Fatalf("%s: Close: %v", backend, err)
		}

		reopened := NewOpenHerd(conf)
		reopened.Connectivity = onet.NewStaticConnectivity(false)
		reopened.Scanner = noScan()
		if err := reopened.Init(); err != nil {
			t.Fatalf("%s: reopen: %v", backend, err)
		}
		if reopened.Node.Queue().Len() != 1 {
			t.Fatalf("%s: pending queue should survive a restart", backend)
		}
		if reopened.PeerSet == nil {
			t.Fatalf("%s: peers.json should be used with a persistent store", backend)
		}
		reopened.Close()

		os.RemoveAll(dir)
	}
}

func TestClientAgainstNode(t *testing.T) {
	// Node side
	nodeConf := config.NewTestConfig(t, logrus.DebugLevel)
	nodeConf.Advertise = false

	cow := NewOpenHerd(nodeConf)
	cow.Connectivity = onet.NewStaticConnectivity(true)
	cow.Scanner = noScan()
	if err := cow.Init(); err != nil {
		t.Fatal(err)
	}
	if err := cow.InitService(); err != nil {
		t.Fatal(err)
	}
	defer cow.Close()

	srv := httptest.NewServer(cow.Service.Handler())
	defer srv.Close()

	// Client side
	clientConf := config.NewTestConfig(t, logrus.DebugLevel)
	clientConf.NodeURL = srv.URL

	client := NewOpenHerd(clientConf)
	client.Connectivity = onet.NewStaticConnectivity(true)
	client.Scanner = noScan()
	if err := client.Init(); err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	ctx := context.Background()

	root, count, err := client.Node.Post(ctx, post.Request{Text: "root", Latitude: 48.85, Longitude: 2.35})
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("node should acknowledge the post, got %d", count)
	}

	parent := root.ID
	if _, _, err := client.Node.Post(ctx, post.Request{Text: "reply", Parent: &parent}); err != nil {
		t.Fatal(err)
	}

	feed, err := client.Node.LoadFeed(ctx)
	if err != nil {
		t.Fatalf("LoadFeed: %v", err)
	}
	if feed.Len() != 2 {
		t.Fatalf("feed should hold 2 posts, got %d", feed.Len())
	}
	for _, i := range feed.Items {
		if !i.Verified || i.Pending {
			t.Fatalf("%s should be verified and delivered", i.ID())
		}
	}
	if roots := feed.RootPosts(); len(roots) != 1 || roots[0].ID() != root.ID {
		t.Fatalf("root post should be %s", root.ID)
	}
	if replies := feed.RepliesOf(root.ID); len(replies) != 1 {
		t.Fatalf("root should have one reply")
	}

	data, _ := root.ParseData()
	if data.Latitude == 48.85 && data.Longitude == 2.35 {
		t.Fatalf("published coordinates should be skewed")
	}

	if _, found, _ := LoadSettings(cow.Store); !found {
		t.Fatalf("node settings should be saved too")
	}
}

func TestListenPort(t *testing.T) {
	if p, err := listenPort(":3000"); err != nil || p != 3000 {
		t.Fatalf("expected 3000, got %d %v", p, err)
	}
	if _, err := listenPort("nope"); err == nil {
		t.Fatalf("invalid address should fail")
	}
}
