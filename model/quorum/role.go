package quorum

// Role is the role of a peer as observed by the transport. Roles only drive peer
// bookkeeping; they never bypass validation.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleFull
	RoleAuthority
)

func (r Role) String() string {
	switch r {
	case RoleFull:
		return "full"
	case RoleAuthority:
		return "authority"
	default:
		return "unknown"
	}
}
