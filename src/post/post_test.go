package post

import (
	"errors"
	"strings"
	"testing"
	"time"

	cm "github.com/openherd/openherd/src/common"
	"github.com/openherd/openherd/src/geo"
)

func identitySkewer() geo.Skewer {
	return geo.SkewFunc(func(lat, lon float64, _ geo.LocalityHints, _ geo.PrivacyConfig) (float64, float64, error) {
		return lat, lon, nil
	})
}

func shiftSkewer(d float64) geo.Skewer {
	return geo.SkewFunc(func(lat, lon float64, _ geo.LocalityHints, _ geo.PrivacyConfig) (float64, float64, error) {
		return lat + d, lon + d, nil
	})
}

func newPost(t *testing.T, text string, parent *string) *Envelope {
	env, err := CreateSignedPost(NewECDSACrypto(), identitySkewer(), Request{
		Text:      text,
		Latitude:  45.5,
		Longitude: -73.5,
		Parent:    parent,
	}, geo.DefaultPrivacyConfig())
	if err != nil {
		t.Fatalf("CreateSignedPost: %v", err)
	}
	return env
}

func TestCreateSignedPost(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)
	env := newPost(t, "hello herd", nil)

	if err := env.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !Verify(env) {
		t.Fatalf("freshly signed post should verify")
	}

	data, err := env.ParseData()
	if err != nil {
		t.Fatalf("ParseData: %v", err)
	}
	if data.ID != env.ID {
		t.Fatalf("data id %s should equal envelope id %s", data.ID, env.ID)
	}
	if data.Text != "hello herd" {
		t.Fatalf("text should be 'hello herd', not '%s'", data.Text)
	}
	if data.Parent != nil {
		t.Fatalf("parent should be nil")
	}
	if data.Date.Before(before) {
		t.Fatalf("date %v should not be before %v", data.Date, before)
	}
	if !strings.Contains(env.Data, `"parent":null`) {
		t.Fatalf("root post should serialize a null parent: %s", env.Data)
	}
}

func TestCreateSignedPostReply(t *testing.T) {
	root := newPost(t, "root", nil)
	reply := newPost(t, "reply", &root.ID)

	data, err := reply.ParseData()
	if err != nil {
		t.Fatalf("ParseData: %v", err)
	}
	if !data.IsReply() || data.ParentID() != root.ID {
		t.Fatalf("reply parent should be %s, not %s", root.ID, data.ParentID())
	}

	empty := ""
	other := newPost(t, "empty parent", &empty)
	odata, _ := other.ParseData()
	if odata.Parent != nil {
		t.Fatalf("empty parent should be stored as nil")
	}
}

func TestFreshIdentityPerPost(t *testing.T) {
	a := newPost(t, "same text", nil)
	b := newPost(t, "same text", nil)

	if a.ID == b.ID {
		t.Fatalf("two posts should have distinct ids")
	}
	if a.PublicKey == b.PublicKey {
		t.Fatalf("two posts should be signed by distinct keys")
	}
}

func TestCreateSignedPostSkewsCoordinates(t *testing.T) {
	env, err := CreateSignedPost(NewECDSACrypto(), shiftSkewer(0.01), Request{
		Text:      "skewed",
		Latitude:  10,
		Longitude: 20,
	}, geo.DefaultPrivacyConfig())
	if err != nil {
		t.Fatal(err)
	}

	data, _ := env.ParseData()
	if data.Latitude == 10 || data.Longitude == 20 {
		t.Fatalf("raw coordinates should never be published: %v,%v", data.Latitude, data.Longitude)
	}
}

type failingCrypto struct {
	*ECDSACrypto
	failGenerate bool
	failSign     bool
}

func (f *failingCrypto) GenerateIdentity(label string) (*Identity, error) {
	if f.failGenerate {
		return nil, errors.New("no entropy")
	}
	return f.ECDSACrypto.GenerateIdentity(label)
}

func (f *failingCrypto) Sign(data []byte, id *Identity) (string, error) {
	if f.failSign {
		return "", errors.New("signer unavailable")
	}
	return f.ECDSACrypto.Sign(data, id)
}

func TestCreateSignedPostFailures(t *testing.T) {
	badSkewer := geo.SkewFunc(func(lat, lon float64, _ geo.LocalityHints, _ geo.PrivacyConfig) (float64, float64, error) {
		return 0, 0, errors.New("no locality")
	})

	cases := []struct {
		name   string
		crypto Crypto
		skewer geo.Skewer
	}{
		{"generate", &failingCrypto{ECDSACrypto: NewECDSACrypto(), failGenerate: true}, identitySkewer()},
		{"sign", &failingCrypto{ECDSACrypto: NewECDSACrypto(), failSign: true}, identitySkewer()},
		{"skew", NewECDSACrypto(), badSkewer},
	}

	for _, c := range cases {
		env, err := CreateSignedPost(c.crypto, c.skewer, Request{Text: "x"}, geo.DefaultPrivacyConfig())
		if env != nil {
			t.Fatalf("%s: no envelope should be produced", c.name)
		}
		if !cm.Is(err, cm.SigningFailure) {
			t.Fatalf("%s: error should be a SigningFailure, got %v", c.name, err)
		}
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	env := newPost(t, "original", nil)
	other := newPost(t, "other", nil)

	tampered := *env
	tampered.Data = strings.Replace(env.Data, "original", "modified", 1)

	swappedKey := *env
	swappedKey.PublicKey = other.PublicKey

	swappedSig := *env
	swappedSig.Signature = other.Signature

	wrongID := *env
	wrongID.ID = other.ID

	garbage := *env
	garbage.Signature = "not|base36!"

	badKey := *env
	badKey.PublicKey = "0XZZ"

	missing := *env
	missing.Signature = ""

	cases := map[string]*Envelope{
		"data":      &tampered,
		"key":       &swappedKey,
		"signature": &swappedSig,
		"id":        &wrongID,
		"garbage":   &garbage,
		"bad key":   &badKey,
		"missing":   &missing,
		"nil":       nil,
	}

	for name, e := range cases {
		if Verify(e) {
			t.Fatalf("%s: tampered envelope should not verify", name)
		}
	}
}

func TestParseDataMalformed(t *testing.T) {
	cases := map[string]*Envelope{
		"missing id":   {Data: "{}", Signature: "a", PublicKey: "b"},
		"missing data": {ID: "X", Signature: "a", PublicKey: "b"},
		"not json":     {ID: "X", Data: "not json", Signature: "a", PublicKey: "b"},
		"no post id":   {ID: "X", Data: `{"text":"hi","date":"2024-05-01T12:00:00Z"}`, Signature: "a", PublicKey: "b"},
		"no date":      {ID: "X", Data: `{"id":"X","text":"hi"}`, Signature: "a", PublicKey: "b"},
	}

	for name, e := range cases {
		if _, err := e.ParseData(); !cm.Is(err, cm.MalformedEnvelope) {
			t.Fatalf("%s: expected MalformedEnvelope, got %v", name, err)
		}
	}

	ok := &Envelope{ID: "X", Data: `{"id":"X","text":"hi","date":"2024-05-01T12:00:00Z","parent":"P"}`, Signature: "a", PublicKey: "b"}
	data, err := ok.ParseData()
	if err != nil {
		t.Fatalf("ParseData: %v", err)
	}
	if data.ParentID() != "P" {
		t.Fatalf("parent should be P, not %s", data.ParentID())
	}
	if !data.Date.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", data.Date)
	}
}

func TestDedup(t *testing.T) {
	a1 := &Envelope{ID: "A", Data: "1"}
	b := &Envelope{ID: "B"}
	a2 := &Envelope{ID: "A", Data: "2"}
	c := &Envelope{ID: "C"}

	res := Dedup([]*Envelope{a1, b, a2, c})
	if len(res) != 3 {
		t.Fatalf("expected 3 envelopes, got %d", len(res))
	}
	if res[0] != a1 || res[1] != b || res[2] != c {
		t.Fatalf("first occurrence should win and order should be kept")
	}
}
