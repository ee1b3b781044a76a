package users

type adminRegistry struct {
	ids map[int]struct{}
}

func newAdminRegistry() *adminRegistry {
	return &adminRegistry{ids: make(map[int]struct{})}
}

func (a *adminRegistry) isAdmin(id int) bool {
	_, ok := a.ids[id]
	return ok
}

func (a *adminRegistry) grant(id int) bool {
	if a.isAdmin(id) {
		return false
	}
	a.ids[id] = struct{}{}
	return true
}

// revoke removes removeID only when both it and removerID are admins.
// removerID may equal removeID.
func (a *adminRegistry) revoke(removerID, removeID int) bool {
	if !a.isAdmin(removeID) || !a.isAdmin(removerID) {
		return false
	}
	delete(a.ids, removeID)
	return true
}
