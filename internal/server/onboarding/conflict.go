package onboarding

import "github.com/dmitrijs2005/medauth/internal/server/models"

type Verdict int

const (
	Allow Verdict = iota
	Block
)

func (v Verdict) String() string {
	if v == Block {
		return "block"
	}
	return "allow"
}

type Reason string

const (
	ReasonSameMethod     Reason = "same_method"
	ReasonNoStoredMethod Reason = "no_stored_method"
	// ReasonCrossProviderUnverified allows one federated provider to sign in
	// to an account first created with another. Kept as an explicit allow
	// until the intended policy is confirmed.
	ReasonCrossProviderUnverified Reason = "cross_provider_unverified"
	ReasonPasswordAccountExists   Reason = "password_account_exists"
	ReasonFederatedAccountExists  Reason = "federated_account_exists"
	ReasonUnrecognizedMethod      Reason = "unrecognized_method"
)

type Decision struct {
	Verdict   Verdict
	Reason    Reason
	Stored    models.AuthMethod
	Attempted models.AuthMethod
}

func (d Decision) Blocked() bool {
	return d.Verdict == Block
}

// DecideConflict compares the method recorded on the profile with the one
// used for the current sign-in. A block means the session just established
// must be revoked.
//
//	stored \ attempted   password   google/apple        (unrecognized)
//	(none)               allow      allow               allow
//	password             allow      block               block
//	google/apple         block      allow if same,      block
//	                                cross-provider
//	                                allow (unverified)
func DecideConflict(stored, attempted models.AuthMethod) Decision {
	d := Decision{Stored: stored, Attempted: attempted}

	switch {
	case stored == models.AuthMethodNone:
		d.Verdict, d.Reason = Allow, ReasonNoStoredMethod
	case attempted == models.AuthMethodNone:
		d.Verdict, d.Reason = Block, ReasonUnrecognizedMethod
	case stored == attempted:
		d.Verdict, d.Reason = Allow, ReasonSameMethod
	case stored == models.AuthMethodPassword && attempted.IsFederated():
		d.Verdict, d.Reason = Block, ReasonPasswordAccountExists
	case stored.IsFederated() && attempted == models.AuthMethodPassword:
		d.Verdict, d.Reason = Block, ReasonFederatedAccountExists
	case stored.IsFederated() && attempted.IsFederated():
		d.Verdict, d.Reason = Allow, ReasonCrossProviderUnverified
	default:
		d.Verdict, d.Reason = Block, ReasonUnrecognizedMethod
	}

	return d
}
