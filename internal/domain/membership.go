package domain

import "time"

// MembershipRole enumerates roles a user can hold within a campaign.
type MembershipRole string

const (
	MembershipRoleAdmin  MembershipRole = "admin"
	MembershipRoleMember MembershipRole = "member"
)

// Membership associates a user with a campaign. At most one membership exists
// per (campaign, user) pair; it is created implicitly by a first donation or
// explicitly when an admin creates a campaign.
type Membership struct {
	CampaignID string
	UserID     string
	Role       MembershipRole
	CreatedAt  time.Time
}
