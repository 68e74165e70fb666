package disclosure

import (
	"fmt"

	"github.com/psolprotocol/masp-core/pkg/groth16proof"
)

// VerifyingKeys holds the per-disclosure-type verifying keys a Manager
// checks proofs against. Each disclosure type compiles from its own
// small circuit, external to this module exactly like the settlement
// circuit, so a Manager is only ever as trustworthy as the keys it was
// constructed with.
type VerifyingKeys struct {
	Range    *groth16proof.VerifyingKey
	Identity *groth16proof.VerifyingKey
	Temporal *groth16proof.VerifyingKey
}

// Manager verifies disclosures presented against a Requirement. It holds
// no note or sequencer state; it is a pure verifier a relying party
// wires up independently of the batch-settlement path.
type Manager struct {
	keys     VerifyingKeys
	registry *AuthorityRegistry
}

// NewManager constructs a Manager over the given verifying keys and
// authority registry.
func NewManager(keys VerifyingKeys, registry *AuthorityRegistry) *Manager {
	return &Manager{keys: keys, registry: registry}
}

// Presented bundles whichever disclosures a note holder chose to
// present; each field is nil when that disclosure type was not
// presented.
type Presented struct {
	Range    *RangeDisclosure
	Identity *IdentityDisclosure
	Temporal *TemporalDisclosure
}

// Satisfies reports whether presented meets requirement: every disclosure
// requirement's Flags name must be present, and the proof of each required
// disclosure must verify against its type's key. A presented disclosure
// whose type is not required is not checked.
func (m *Manager) Satisfies(req Requirement, presented Presented) error {
	if req.Flags&FlagRange != 0 {
		if presented.Range == nil {
			return fmt.Errorf("disclosure: range disclosure required but not presented")
		}
		ok, err := VerifyRangeDisclosure(presented.Range, m.keys.Range)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("disclosure: range disclosure failed verification")
		}
		if presented.Range.MinValue < req.RangeMin || presented.Range.MaxValue > req.RangeMax {
			return fmt.Errorf("disclosure: presented range [%d, %d] does not satisfy required [%d, %d]",
				presented.Range.MinValue, presented.Range.MaxValue, req.RangeMin, req.RangeMax)
		}
	}

	if req.Flags&FlagIdentity != 0 {
		if presented.Identity == nil {
			return fmt.Errorf("disclosure: identity disclosure required but not presented")
		}
		if !m.registry.Known(presented.Identity.AuthorityPubKey) {
			return fmt.Errorf("disclosure: identity disclosure names an unknown authority")
		}
		ok, err := VerifyIdentityDisclosure(presented.Identity, m.keys.Identity)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("disclosure: identity disclosure failed verification")
		}
	}

	if req.Flags&FlagTemporal != 0 {
		if presented.Temporal == nil {
			return fmt.Errorf("disclosure: temporal disclosure required but not presented")
		}
		ok, err := VerifyTemporalDisclosure(presented.Temporal, m.keys.Temporal)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("disclosure: temporal disclosure failed verification")
		}
		if presented.Temporal.MinDuration < req.MinHoldTime {
			return fmt.Errorf("disclosure: presented min_duration %d is below required %d",
				presented.Temporal.MinDuration, req.MinHoldTime)
		}
	}

	return nil
}
