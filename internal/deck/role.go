package deck

type Role int

const (
	RoleOther Role = iota
	RoleTitle
	RoleBody
	RolePicture
)

func (r Role) String() string {
	switch r {
	case RoleTitle:
		return "title"
	case RoleBody:
		return "body"
	case RolePicture:
		return "picture"
	default:
		return "other"
	}
}

// FindFirst returns the first placeholder with the given role, scanning in
// native order. Later placeholders sharing the role are ignored.
func FindFirst(placeholders []Placeholder, role Role) (Placeholder, bool) {
	for _, ph := range placeholders {
		if ph.Role() == role {
			return ph, true
		}
	}
	return nil, false
}
