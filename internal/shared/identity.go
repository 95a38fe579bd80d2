package shared

// Identity is the user a request acts on behalf of. The zero value is anonymous.
type Identity struct {
	UserID int64
	Email  string
	Name   string
}

// Anonymous returns the identity of a caller without a session user.
func Anonymous() Identity {
	return Identity{}
}

// IsResolved reports whether the identity belongs to a known user.
func (i Identity) IsResolved() bool {
	return i.UserID > 0
}

// ID returns the user id, zero when anonymous.
func (i Identity) ID() int64 {
	return i.UserID
}
