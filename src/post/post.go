package post

import (
	"time"

	cm "github.com/openherd/openherd/src/common"
	"github.com/openherd/openherd/src/store"
)

// PostData is the signed content of a post.
type PostData struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Date      time.Time `json:"date"`
	Parent    *string   `json:"parent"`
}

// IsReply ...
func (p *PostData) IsReply() bool {
	return p.Parent != nil && *p.Parent != ""
}

// ParentID returns the id of the post this one replies to, or "".
func (p *PostData) ParentID() string {
	if p.Parent == nil {
		return ""
	}
	return *p.Parent
}

// Marshal returns the deterministic serialization of the post which is signed
// and transported in Envelope.Data.
func (p *PostData) Marshal() ([]byte, error) {
	return store.Marshal(p)
}

// Unmarshal ...
func (p *PostData) Unmarshal(data []byte) error {
	return store.Unmarshal(data, p)
}

// Envelope is the unit of transport and storage. It is immutable once signed.
type Envelope struct {
	ID        string `json:"id"`
	Data      string `json:"data"`
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey"`
}

// Validate checks that none of the envelope fields is missing.
func (e *Envelope) Validate() error {
	if e == nil {
		return cm.NewErr("Envelope", cm.MalformedEnvelope, "nil")
	}
	switch {
	case e.ID == "":
		return cm.NewErr("Envelope", cm.MalformedEnvelope, "missing id")
	case e.Data == "":
		return cm.NewErr("Envelope", cm.MalformedEnvelope, e.ID+": missing data")
	case e.Signature == "":
		return cm.NewErr("Envelope", cm.MalformedEnvelope, e.ID+": missing signature")
	case e.PublicKey == "":
		return cm.NewErr("Envelope", cm.MalformedEnvelope, e.ID+": missing publicKey")
	}
	return nil
}

// ParseData decodes the PostData carried by the envelope. A post without an id
// or a date is malformed.
func (e *Envelope) ParseData() (*PostData, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	data := new(PostData)
	if err := data.Unmarshal([]byte(e.Data)); err != nil {
		return nil, cm.WrapErr("Envelope", cm.MalformedEnvelope, e.ID, err)
	}

	if data.ID == "" {
		return nil, cm.NewErr("Envelope", cm.MalformedEnvelope, e.ID+": post without id")
	}
	if data.Date.IsZero() {
		return nil, cm.NewErr("Envelope", cm.MalformedEnvelope, e.ID+": post without date")
	}

	return data, nil
}

// Dedup removes the envelopes whose id was already seen, keeping the first
// occurrence and the relative order of the others.
func Dedup(envelopes []*Envelope) []*Envelope {
	seen := make(map[string]struct{}, len(envelopes))
	res := make([]*Envelope, 0, len(envelopes))
	for _, e := range envelopes {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		res = append(res, e)
	}
	return res
}
