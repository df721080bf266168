package peers

import (
	"fmt"
	"io/ioutil"
	"os"
	"reflect"
	"testing"
)

func TestNewPeer(t *testing.T) {
	cases := []struct {
		host string
		port int
		url  string
	}{
		{"192.168.1.20", 3000, "http://192.168.1.20:3000"},
		{"node.local.", 8080, "http://node.local:8080"},
		{"10.0.0.1", 0, "http://10.0.0.1:3000"},
	}

	for _, c := range cases {
		p := NewPeer("n", c.host, c.port, nil)
		if p.URL != c.url {
			t.Fatalf("url should be %s, not %s", c.url, p.URL)
		}
	}
}

func TestDirectoryTargets(t *testing.T) {
	dir := NewDirectory("http://primary:3000")

	if targets := dir.Targets(); !reflect.DeepEqual(targets, []string{"http://primary:3000"}) {
		t.Fatalf("targets should only contain the primary, got %v", targets)
	}

	dir.OnPeers([]*Peer{
		NewPeer("b", "10.0.0.2", 3000, nil),
		NewPeer("a", "10.0.0.1", 3000, nil),
		NewPeer("p", "primary", 3000, nil),
	})

	expected := []string{
		"http://primary:3000",
		"http://10.0.0.2:3000",
		"http://10.0.0.1:3000",
		"http://primary:3000",
	}
	if targets := dir.Targets(); !reflect.DeepEqual(targets, expected) {
		t.Fatalf("targets should be %v, not %v", expected, targets)
	}

	dir.SetDiscovered(nil)
	if n := len(dir.Discovered()); n != 0 {
		t.Fatalf("discovered set should be replaced, got %d peers", n)
	}
}

func TestDirectoryDiscoveredIsCopy(t *testing.T) {
	dir := NewDirectory("http://primary:3000")
	in := []*Peer{NewPeer("a", "10.0.0.1", 3000, nil)}
	dir.SetDiscovered(in)

	in[0] = NewPeer("b", "10.0.0.9", 3000, nil)
	out := dir.Discovered()
	out[0] = nil

	if urls := dir.DiscoveredURLs(); urls[0] != "http://10.0.0.1:3000" {
		t.Fatalf("directory should not share its slice, got %v", urls)
	}
}

func TestJSONPeerSet(t *testing.T) {
	dir, err := ioutil.TempDir("", "openherd")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	store := NewJSONPeerSet(dir)

	// Try a read, should get nothing
	peers, err := store.Peers()
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if len(peers) != 0 {
		t.Fatalf("peers: %v", peers)
	}

	written := []*Peer{}
	for i := 0; i < 3; i++ {
		written = append(written, NewPeer(
			fmt.Sprintf("node%d", i),
			fmt.Sprintf("10.0.0.%d", i),
			3000+i,
			map[string]string{"version": "1"},
		))
	}

	if err := store.Write(written); err != nil {
		t.Fatalf("err: %v", err)
	}

	peers, err = store.Peers()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !reflect.DeepEqual(peers, written) {
		t.Fatalf("peers should be %v, not %v", written, peers)
	}

	store.OnPeers(nil)
	peers, err = store.Peers()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(peers) != 0 {
		t.Fatalf("empty scan should clear the file, got %v", peers)
	}
}
