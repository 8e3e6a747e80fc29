package domain

import "time"

// Member is the thin slice of an account holder the settlement core needs:
// existence and a display name. Profiles, KYC and network placement live in
// external collaborators.
type Member struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

// Validate checks a member at registration time.
func (m *Member) Validate() error {
	if m.ID == "" {
		return Invalidf("member id required")
	}
	if m.ID == RootMemberID {
		return Invalidf("member id %q is reserved", RootMemberID)
	}
	if m.Name == "" {
		return Invalidf("member name required")
	}
	return nil
}
