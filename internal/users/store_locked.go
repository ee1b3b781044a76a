package users

import "sync"

// LockedStore serializes every call to the wrapped Store behind one mutex.
type LockedStore struct {
	mu sync.Mutex
	s  *Store
}

func NewLockedStore(s *Store) *LockedStore {
	return &LockedStore{s: s}
}

func (l *LockedStore) LookupUserID(email, password string) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.LookupUserID(email, password)
}

func (l *LockedStore) EmailForUsername(username string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.EmailForUsername(username)
}

func (l *LockedStore) IsAdmin(userID int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.IsAdmin(userID)
}

func (l *LockedStore) Create(su SignUp) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.Create(su)
}

func (l *LockedStore) Read(userID int) (User, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.Read(userID)
}

func (l *LockedStore) Update(p ProfilePatch) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.Update(p)
}

func (l *LockedStore) Delete(email, password string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.Delete(email, password)
}

func (l *LockedStore) DeleteAllExceptCaller(email, password string) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.DeleteAllExceptCaller(email, password)
}

func (l *LockedStore) GrantAdmin(userID int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.GrantAdmin(userID)
}

func (l *LockedStore) Promote(userID int) (found, granted bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.Promote(userID)
}

func (l *LockedStore) RevokeAdmin(removerID, removeID int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.RevokeAdmin(removerID, removeID)
}

func (l *LockedStore) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.Count()
}
