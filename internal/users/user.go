package users

type Gender string

const (
	GenderMale          Gender = "m"
	GenderFemale        Gender = "w"
	GenderIndeterminate Gender = "indeterminate"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderIndeterminate:
		return true
	}
	return false
}

// User is a stored profile. The password never lives on the record; it is
// kept only in the credential index.
type User struct {
	ID         int    `json:"user_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Lastname   string `json:"lastname"`
	Gender     Gender `json:"gender"`
	CreditCard string `json:"credit_card"`
	Bio        string `json:"bio"`
}

type SignUp struct {
	Name       string
	Lastname   string
	Username   string
	Password   string
	Email      string
	Gender     Gender
	CreditCard string
	Bio        string
}

func (s SignUp) record(id int) User {
	g := s.Gender
	if g == "" {
		g = GenderIndeterminate
	}
	return User{
		ID:         id,
		Username:   s.Username,
		Email:      s.Email,
		Name:       s.Name,
		Lastname:   s.Lastname,
		Gender:     g,
		CreditCard: s.CreditCard,
		Bio:        s.Bio,
	}
}

// ProfilePatch describes a partial profile edit of the user identified by
// UserID. Empty strings keep the current value. The secret changes only when
// both OldPassword and NewPassword are set.
type ProfilePatch struct {
	UserID      int
	OldPassword *string
	NewPassword *string
	Email       string
	Name        string
	Lastname    string
	Username    string
	Bio         string
	CreditCard  string
	Gender      Gender
}

func (p ProfilePatch) wantsSecretChange() bool {
	return p.OldPassword != nil && p.NewPassword != nil
}

func (p ProfilePatch) apply(cur User, email string) User {
	next := cur
	next.Email = email
	next.Name = keep(p.Name, cur.Name)
	next.Lastname = keep(p.Lastname, cur.Lastname)
	next.Username = keep(p.Username, cur.Username)
	next.Bio = keep(p.Bio, cur.Bio)
	next.CreditCard = keep(p.CreditCard, cur.CreditCard)
	if p.Gender != "" {
		next.Gender = p.Gender
	}
	return next
}

func keep(v, cur string) string {
	if v == "" {
		return cur
	}
	return v
}

// sameProfile compares two records by value, ignoring the id.
func sameProfile(a, b User) bool {
	a.ID, b.ID = 0, 0
	return a == b
}
