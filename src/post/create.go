package post

import (
	"time"

	cm "github.com/openherd/openherd/src/common"
	"github.com/openherd/openherd/src/geo"
)

// Request holds what the author provides for a new post.
type Request struct {
	Text      string
	Latitude  float64
	Longitude float64
	Parent    *string
	Hints     geo.LocalityHints
}

// CreateSignedPost signs a new post with a fresh identity. The coordinates
// are always passed through the skewer first; raw coordinates are never
// published. Any failure of the crypto capability, or of the skewer, is
// returned as a SigningFailure and no envelope is produced.
func CreateSignedPost(crypto Crypto, skewer geo.Skewer, req Request, privacy geo.PrivacyConfig) (*Envelope, error) {
	return createSignedPost(crypto, skewer, req, privacy, time.Now)
}

func createSignedPost(crypto Crypto, skewer geo.Skewer, req Request, privacy geo.PrivacyConfig, now func() time.Time) (*Envelope, error) {
	identity, err := crypto.GenerateIdentity(NewLabel())
	if err != nil {
		return nil, cm.WrapErr("Post", cm.SigningFailure, "generate identity", err)
	}

	id := crypto.Fingerprint(identity.PublicKey)

	lat, lon, err := skewer.Skew(req.Latitude, req.Longitude, req.Hints, privacy)
	if err != nil {
		return nil, cm.WrapErr("Post", cm.SigningFailure, "skew coordinates", err)
	}

	var parent *string
	if req.Parent != nil && *req.Parent != "" {
		p := *req.Parent
		parent = &p
	}

	data := &PostData{
		ID:        id,
		Text:      req.Text,
		Latitude:  lat,
		Longitude: lon,
		Date:      now().UTC(),
		Parent:    parent,
	}

	serialized, err := data.Marshal()
	if err != nil {
		return nil, cm.WrapErr("Post", cm.SigningFailure, "serialize", err)
	}

	signature, err := crypto.Sign(serialized, identity)
	if err != nil {
		return nil, cm.WrapErr("Post", cm.SigningFailure, "sign", err)
	}

	return &Envelope{
		ID:        id,
		Data:      string(serialized),
		Signature: signature,
		PublicKey: crypto.EncodePublicKey(identity.PublicKey),
	}, nil
}
