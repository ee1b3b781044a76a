package users

import (
	"errors"
	"fmt"
	"slices"
)

var ErrSeed = errors.New("seed admin setup failed")

// Ids below firstUserID are reserved so seed and fixture ids stand out.
const firstUserID = 100

const (
	SeedEmail    = "adminadmin@adm.in"
	SeedPassword = "Password0000"
	SeedUsername = "adminadmin"
)

// UserStore is what the HTTP layer needs from a user store. Expected
// failures (not found, bad credentials, conflicts, denied revokes) are
// reported through ok flags, never errors.
type UserStore interface {
	LookupUserID(email, password string) (int, bool)
	EmailForUsername(username string) (string, bool)
	IsAdmin(userID int) bool
	Create(su SignUp) (int, bool)
	Read(userID int) (User, bool)
	Update(p ProfilePatch) bool
	Delete(email, password string) bool
	DeleteAllExceptCaller(email, password string) (int, bool)
	GrantAdmin(userID int) bool
	Promote(userID int) (found, granted bool)
	RevokeAdmin(removerID, removeID int) bool
	Count() int
}

// Store keeps user records, credentials and admin membership consistent.
// It is not safe for concurrent use; see LockedStore.
type Store struct {
	creds  *credentialIndex
	admins *adminRegistry
	users  []User
	lastID int
}

func NewStore(h Hasher) *Store {
	return &Store{
		creds:  newCredentialIndex(h),
		admins: newAdminRegistry(),
		lastID: firstUserID - 1,
	}
}

// Initialize creates the bootstrap user and makes it an admin.
func (s *Store) Initialize() error {
	id, ok := s.Create(SignUp{
		Name:       "Admin",
		Lastname:   "Admin",
		Username:   SeedUsername,
		Password:   SeedPassword,
		Email:      SeedEmail,
		Gender:     GenderIndeterminate,
		CreditCard: "0000000000000000",
		Bio:        "I'm an admin person",
	})
	if !ok {
		return fmt.Errorf("%w: seed user rejected", ErrSeed)
	}
	if !s.GrantAdmin(id) {
		return fmt.Errorf("%w: grant admin to %d", ErrSeed, id)
	}
	return nil
}

func (s *Store) LookupUserID(email, password string) (int, bool) {
	return s.creds.lookup(email, password)
}

func (s *Store) EmailForUsername(username string) (string, bool) {
	for _, u := range s.users {
		if u.Username == username {
			return u.Email, true
		}
	}
	return "", false
}

func (s *Store) IsAdmin(userID int) bool {
	return s.admins.isAdmin(userID)
}

func (s *Store) Create(su SignUp) (int, bool) {
	rec := su.record(0)
	for _, u := range s.users {
		if sameProfile(u, rec) {
			return 0, false
		}
	}
	if _, ok := s.creds.lookup(su.Email, su.Password); ok {
		return 0, false
	}
	if s.creds.has(su.Email) || s.usernameTaken(su.Username, 0) {
		return 0, false
	}

	id := s.lastID + 1
	if err := s.creds.put(su.Email, su.Password, id); err != nil {
		return 0, false
	}

	s.lastID = id
	rec.ID = id
	s.users = append(s.users, rec)
	return id, true
}

func (s *Store) Read(userID int) (User, bool) {
	if i := s.indexOf(userID); i >= 0 {
		return s.users[i], true
	}
	return User{}, false
}

func (s *Store) Update(p ProfilePatch) bool {
	i := s.indexOf(p.UserID)
	if i < 0 {
		return false
	}
	cur := s.users[i]

	email := cur.Email
	if p.Email != "" && p.Email != cur.Email {
		if s.creds.has(p.Email) {
			return false
		}
		email = p.Email
	}

	if p.Username != "" && s.usernameTaken(p.Username, cur.ID) {
		return false
	}

	if p.wantsSecretChange() {
		if *p.OldPassword == "" || *p.NewPassword == "" {
			return false
		}
		if !s.creds.changeSecret(cur.Email, *p.OldPassword, *p.NewPassword) {
			return false
		}
	}

	// The new email was checked free above, so the rename cannot fail.
	if email != cur.Email {
		s.creds.changeEmail(cur.Email, email)
	}

	s.users[i] = p.apply(cur, email)
	return true
}

func (s *Store) Delete(email, password string) bool {
	id, ok := s.creds.lookup(email, password)
	if !ok {
		return false
	}
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	if !s.creds.remove(email, password) {
		return false
	}

	s.users = slices.Delete(s.users, i, i+1)
	s.admins.revoke(id, id)
	return true
}

// DeleteAllExceptCaller removes every user except the calling admin, whose
// credentials survive the wipe, and returns the caller's id. It reports
// false and changes nothing when the caller is unknown or not an admin.
func (s *Store) DeleteAllExceptCaller(email, password string) (int, bool) {
	id, ok := s.creds.lookup(email, password)
	if !ok || s.indexOf(id) < 0 || !s.admins.isAdmin(id) {
		return 0, false
	}
	own, _ := s.creds.entry(email)

	s.creds.clear()
	kept := make([]User, 0, 1)
	for _, u := range s.users {
		if u.ID == id {
			kept = append(kept, u)
			continue
		}
		s.admins.revoke(id, u.ID)
	}
	s.users = kept
	s.creds.restore(email, own)
	return id, true
}

func (s *Store) GrantAdmin(userID int) bool {
	return s.admins.grant(userID)
}

// Promote grants admin rights only to an existing user. found is false
// when no record carries userID; granted is false when it was already an admin.
func (s *Store) Promote(userID int) (found, granted bool) {
	if s.indexOf(userID) < 0 {
		return false, false
	}
	return true, s.admins.grant(userID)
}

func (s *Store) RevokeAdmin(removerID, removeID int) bool {
	return s.admins.revoke(removerID, removeID)
}

func (s *Store) Count() int {
	return len(s.users)
}

// usernameTaken reports whether a record other than exceptID uses username.
func (s *Store) usernameTaken(username string, exceptID int) bool {
	return slices.ContainsFunc(s.users, func(u User) bool {
		return u.Username == username && u.ID != exceptID
	})
}

func (s *Store) indexOf(userID int) int {
	return slices.IndexFunc(s.users, func(u User) bool { return u.ID == userID })
}
