package crypto_test

import (
	"testing"

	"github.com/ardanlabs/blocknode/foundation/blockchain/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_SignAndVerify(t *testing.T) {
	kp, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatalf("%s\tShould be able to generate a key pair: %s", failed, err)
	}
	t.Logf("%s\tShould be able to generate a key pair.", success)

	digest := []byte("a message worth signing")

	sig, err := kp.Sign(digest)
	if err != nil {
		t.Fatalf("%s\tShould be able to sign a digest: %s", failed, err)
	}
	t.Logf("%s\tShould be able to sign a digest.", success)

	if err := crypto.Verify(kp.Address(), digest, sig); err != nil {
		t.Fatalf("%s\tShould be able to verify a signature against the signer's address: %s", failed, err)
	}
	t.Logf("%s\tShould be able to verify a signature against the signer's address.", success)
}

func Test_VerifyRejectsWrongAddress(t *testing.T) {
	kp, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatalf("%s\tShould be able to generate a key pair: %s", failed, err)
	}

	other, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatalf("%s\tShould be able to generate a second key pair: %s", failed, err)
	}

	digest := []byte("a message worth signing")

	sig, err := kp.Sign(digest)
	if err != nil {
		t.Fatalf("%s\tShould be able to sign a digest: %s", failed, err)
	}

	if err := crypto.Verify(other.Address(), digest, sig); err == nil {
		t.Fatalf("%s\tShould reject a signature checked against the wrong address.", failed)
	}
	t.Logf("%s\tShould reject a signature checked against the wrong address.", success)
}

func Test_AddressRoundTrip(t *testing.T) {
	kp, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatalf("%s\tShould be able to generate a key pair: %s", failed, err)
	}

	pub, err := crypto.ParseAddress(kp.Address())
	if err != nil {
		t.Fatalf("%s\tShould be able to parse a DER address back into a public key: %s", failed, err)
	}
	t.Logf("%s\tShould be able to parse a DER address back into a public key.", success)

	if !pub.IsEqual(kp.Public) {
		t.Fatalf("%s\tShould recover the exact public key that produced the address.", failed)
	}
	t.Logf("%s\tShould recover the exact public key that produced the address.", success)
}
