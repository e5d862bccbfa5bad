package model

// ReferralOutcome tells why a referral was or was not applied.
type ReferralOutcome int

const (
	ReferralApplied ReferralOutcome = iota
	ReferralMalformedCode
	ReferralSelf
	ReferralAlreadyReferred
	ReferralUnknownReferrer
)

func (o ReferralOutcome) String() string {
	switch o {
	case ReferralApplied:
		return "applied"
	case ReferralMalformedCode:
		return "malformed_code"
	case ReferralSelf:
		return "self_referral"
	case ReferralAlreadyReferred:
		return "already_referred"
	case ReferralUnknownReferrer:
		return "unknown_referrer"
	}
	return "unknown"
}

type ReferralResult struct {
	Outcome    ReferralOutcome
	ReferrerID int64
	Referrer   *UserAccount // set when applied
}

func (r ReferralResult) Applied() bool { return r.Outcome == ReferralApplied }

// ClaimOutcome distinguishes the results of the daily and one-time claims.
type ClaimOutcome int

const (
	ClaimSucceeded ClaimOutcome = iota
	ClaimAlreadyClaimed
	ClaimNotMember
)

func (o ClaimOutcome) String() string {
	switch o {
	case ClaimSucceeded:
		return "success"
	case ClaimAlreadyClaimed:
		return "already_claimed"
	case ClaimNotMember:
		return "not_member"
	}
	return "unknown"
}

type ClaimResult struct {
	Success    bool
	Outcome    ClaimOutcome
	NewBalance int64
}

// AdminOutcome is the result of an admin or channel list mutation.
type AdminOutcome int

const (
	AdminApplied AdminOutcome = iota
	AdminUnauthorized
	AdminAlreadyPresent
	AdminNotPresent
	AdminInvalidInput
)

func (o AdminOutcome) String() string {
	switch o {
	case AdminApplied:
		return "applied"
	case AdminUnauthorized:
		return "unauthorized"
	case AdminAlreadyPresent:
		return "already_present"
	case AdminNotPresent:
		return "not_present"
	case AdminInvalidInput:
		return "invalid_input"
	}
	return "unknown"
}

type AdminResult struct {
	Outcome AdminOutcome
	Value   string // normalized channel or admin id the call acted on
}

func (r AdminResult) Applied() bool { return r.Outcome == AdminApplied }

// MembershipResult is the outcome of checking every required channel.
type MembershipResult struct {
	Joined   bool
	Channels []string
}
