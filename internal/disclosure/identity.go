package disclosure

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/psolprotocol/masp-core/pkg/groth16proof"
)

// Authority is a credential issuer an identity disclosure can be proven
// against.
type Authority struct {
	PublicKey [32]byte
	Name      string
}

// AuthorityRegistry is the set of issuers a verifier trusts. It is
// intentionally a plain in-memory map: the sequencer never consults it,
// and a relying party wiring this up owns its own source of truth for
// which authorities it accepts.
type AuthorityRegistry struct {
	authorities map[[32]byte]Authority
}

// NewAuthorityRegistry returns an empty registry.
func NewAuthorityRegistry() *AuthorityRegistry {
	return &AuthorityRegistry{authorities: make(map[[32]byte]Authority)}
}

// Register adds a trusted authority.
func (r *AuthorityRegistry) Register(a Authority) {
	r.authorities[a.PublicKey] = a
}

// Known reports whether pubkey names a registered authority.
func (r *AuthorityRegistry) Known(pubkey [32]byte) bool {
	_, ok := r.authorities[pubkey]
	return ok
}

// IdentityDisclosure proves the holder possesses a credential issued by
// AuthorityPubKey, binding to CredentialCommitment without revealing the
// credential.
type IdentityDisclosure struct {
	AuthorityPubKey      [32]byte
	CredentialCommitment *Commitment
	Proof                *groth16proof.Proof
}

// NewIdentityDisclosure packages a previously generated identity proof
// against a registered authority. It refuses to package a disclosure
// naming an authority the caller's registry does not recognize, since
// verifying against an unknown issuer would be meaningless.
func NewIdentityDisclosure(registry *AuthorityRegistry, authorityPubKey [32]byte, credentialCommitment *Commitment, proof *groth16proof.Proof) (*IdentityDisclosure, error) {
	if !registry.Known(authorityPubKey) {
		return nil, fmt.Errorf("disclosure: unknown authority")
	}
	return &IdentityDisclosure{
		AuthorityPubKey:      authorityPubKey,
		CredentialCommitment: credentialCommitment,
		Proof:                proof,
	}, nil
}

// PublicInputs returns the identity circuit's public inputs in order:
// authority_pubkey, credential_commitment.
func (d *IdentityDisclosure) PublicInputs() []fr.Element {
	// The authority pubkey is a 32-byte hash-derived value, not
	// guaranteed to be below the scalar-field modulus, so it is reduced
	// the same way a commitment hash is rather than parsed as a
	// canonical field element.
	maskedKey := make([]byte, 32)
	copy(maskedKey, d.AuthorityPubKey[:])
	maskedKey[0] &= 0x1F

	var authorityFE fr.Element
	authorityFE.SetBigInt(new(big.Int).SetBytes(maskedKey))

	return []fr.Element{
		authorityFE,
		commitmentToFieldElement(d.CredentialCommitment),
	}
}

// VerifyIdentityDisclosure checks d.Proof against vk and d's public
// inputs.
func VerifyIdentityDisclosure(d *IdentityDisclosure, vk *groth16proof.VerifyingKey) (bool, error) {
	ok, err := groth16proof.Verify(d.Proof, vk, d.PublicInputs())
	if err != nil {
		return false, fmt.Errorf("disclosure: verify identity disclosure: %w", err)
	}
	return ok, nil
}
