// Package keys implements the public key cryptography used to sign posts.
//
// Every post is signed by a key-pair generated for that post alone and thrown
// away once the signature is produced. The public key travels with the post so
// that any node or client can verify it, and its fingerprint becomes the post's
// identifier.
//
// Keys use elliptic curve cryptography (ECDSA) with the secp256k1 curve.
package keys
