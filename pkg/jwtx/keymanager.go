package jwtx

import (
	"fmt"

	"github.com/open-science-archive/osa-go/pkg/cryptox"
)

// KeyManager bundles the signing and verification side of one archive node's
// token key. The mock archive runs a single active key; rotation means
// loading a new PEM and keeping old public keys registered on the Verifier.
type KeyManager struct {
	Signer   *Signer
	Verifier *Verifier
}

// NewKeyManager builds a manager around an existing Ed25519 PKCS8 PEM key.
func NewKeyManager(issuer string, pemKey []byte) (*KeyManager, error) {
	signer, err := NewSigner(pemKey)
	if err != nil {
		return nil, err
	}

	verifier := NewVerifier(issuer)
	verifier.AddSigner(signer)

	return &KeyManager{Signer: signer, Verifier: verifier}, nil
}

// NewEphemeralKeyManager generates a fresh in-memory key. Tokens die with
// the process; fine for tests and throwaway dev runs.
func NewEphemeralKeyManager(issuer string) (*KeyManager, error) {
	pemKey, err := cryptox.GenerateEd25519Key()
	if err != nil {
		return nil, fmt.Errorf("jwtx: generate ephemeral key: %w", err)
	}
	return NewKeyManager(issuer, pemKey)
}
