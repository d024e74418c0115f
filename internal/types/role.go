package types

type Role string

const (
	RoleSubmitter     Role = "submitter"
	RoleReviewer      Role = "reviewer"
	RoleAdministrator Role = "administrator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSubmitter, RoleReviewer, RoleAdministrator:
		return true
	}
	return false
}

// CanReview reports whether the role may write complaint status or
// resolution fields.
func (r Role) CanReview() bool {
	return r == RoleReviewer || r == RoleAdministrator
}
