// Package crypto provides the key generation, signing and verification
// primitives the blockchain and transaction packages build on. Keys are
// secp256k1 and are always exchanged in their DER encoded form, matching
// the wire format described for transaction addresses.
package crypto

import (
	"encoding/asn1"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// ErrInvalidSignature is returned by Verify when the signature does not
// check out against the supplied address.
var ErrInvalidSignature = errors.New("invalid signature")

// idECPublicKey and secp256k1OID are the ASN.1 object identifiers used to
// build a standard SubjectPublicKeyInfo wrapper around a raw secp256k1
// point, the same shape produced by x509.MarshalPKIXPublicKey for curves
// the standard library knows about.
var (
	idECPublicKey = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	secp256k1OID  = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

type pkixPublicKey struct {
	Algorithm pkixAlgorithmIdentifier
	PublicKey asn1.BitString
}

type pkixAlgorithmIdentifier struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.ObjectIdentifier
}

// KeyPair is a secp256k1 private/public key pair.
type KeyPair struct {
	Private *secp256k1.PrivateKey
	Public  *secp256k1.PublicKey
}

// NewKeyPair generates a fresh secp256k1 key pair.
func NewKeyPair() (KeyPair, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return KeyPair{}, fmt.Errorf("generating key: %w", err)
	}

	return KeyPair{Private: priv, Public: priv.PubKey()}, nil
}

// Address returns the base64 textual form of the DER encoded public key,
// the wire representation of a wallet address.
func (kp KeyPair) Address() string {
	return MarshalAddress(kp.Public)
}

// SerializePrivate returns the raw 32-byte scalar of the private key, for
// callers (such as a wallet CLI) that need to persist a key pair to disk
// between invocations.
func (kp KeyPair) SerializePrivate() []byte {
	return kp.Private.Serialize()
}

// ParsePrivateKey reconstructs a KeyPair from a raw 32-byte private key
// scalar, the inverse of SerializePrivate.
func ParsePrivateKey(raw []byte) (KeyPair, error) {
	if len(raw) != 32 {
		return KeyPair{}, fmt.Errorf("parsing private key: want 32 bytes, got %d", len(raw))
	}

	priv := secp256k1.PrivKeyFromBytes(raw)
	return KeyPair{Private: priv, Public: priv.PubKey()}, nil
}

// Sign produces a DER encoded ECDSA signature over the supplied digest,
// base64 encoded for inclusion on the wire.
func (kp KeyPair) Sign(digest []byte) (string, error) {
	sig := ecdsa.Sign(kp.Private, digest)
	return base64.StdEncoding.EncodeToString(sig.Serialize()), nil
}

// MarshalAddress encodes a public key as the base64 textual form of its
// DER (SubjectPublicKeyInfo) encoding.
func MarshalAddress(pub *secp256k1.PublicKey) string {
	return base64.StdEncoding.EncodeToString(MarshalDERPublicKey(pub))
}

// MarshalDERPublicKey wraps a raw secp256k1 point into a DER encoded
// SubjectPublicKeyInfo, the same shape produced by x509.MarshalPKIXPublicKey
// for curves the standard library recognizes natively.
func MarshalDERPublicKey(pub *secp256k1.PublicKey) []byte {
	point := pub.SerializeUncompressed()

	spki := pkixPublicKey{
		Algorithm: pkixAlgorithmIdentifier{
			Algorithm:  idECPublicKey,
			Parameters: secp256k1OID,
		},
		PublicKey: asn1.BitString{Bytes: point, BitLength: len(point) * 8},
	}

	der, err := asn1.Marshal(spki)
	if err != nil {
		// Marshaling a well-formed SubjectPublicKeyInfo cannot fail.
		panic(fmt.Sprintf("crypto: marshal der public key: %v", err))
	}

	return der
}

// ParseDERPublicKey decodes a DER encoded SubjectPublicKeyInfo back into a
// secp256k1 public key, rejecting any curve other than secp256k1.
func ParseDERPublicKey(der []byte) (*secp256k1.PublicKey, error) {
	var spki pkixPublicKey
	if _, err := asn1.Unmarshal(der, &spki); err != nil {
		return nil, fmt.Errorf("parsing der public key: %w", err)
	}

	if !spki.Algorithm.Algorithm.Equal(idECPublicKey) {
		return nil, errors.New("parsing der public key: not an EC public key")
	}
	if !spki.Algorithm.Parameters.Equal(secp256k1OID) {
		return nil, errors.New("parsing der public key: not a secp256k1 key")
	}

	pub, err := secp256k1.ParsePubKey(spki.PublicKey.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing der public key: %w", err)
	}

	return pub, nil
}

// ParseAddress decodes the base64 wire form of an address into a public key.
func ParseAddress(address string) (*secp256k1.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(address)
	if err != nil {
		return nil, fmt.Errorf("decoding address: %w", err)
	}

	return ParseDERPublicKey(der)
}

// Verify checks a base64 encoded DER signature over digest against the
// address (base64 DER public key) claiming to have produced it.
func Verify(address string, digest []byte, signature string) error {
	pub, err := ParseAddress(address)
	if err != nil {
		return err
	}

	sigBytes, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("decoding signature: %w", err)
	}

	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return fmt.Errorf("parsing signature: %w", err)
	}

	if !sig.Verify(digest, pub) {
		return ErrInvalidSignature
	}

	return nil
}
