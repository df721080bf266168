// Package post creates and verifies signed posts.
//
// A post is published as an Envelope: the deterministic serialization of its
// PostData, a detached signature over those exact bytes, and the public key
// that produced the signature. Each post is signed by a brand new Identity
// which is discarded afterwards, so two posts by the same person cannot be
// linked through their keys. The fingerprint of the public key is the post's
// identifier, which makes the identifier stable for the lifetime of the post
// and independent of its content.
//
// Verification is advisory. Verify never fails loudly; it reports false for
// anything it cannot check.
package post
