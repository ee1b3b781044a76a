package users

type credential struct {
	hash   []byte
	userID int
}

// credentialIndex maps an email to its hashed secret and owning user id.
// An entry exists for an email iff a user record carries that email.
type credentialIndex struct {
	hasher  Hasher
	byEmail map[string]credential
}

func newCredentialIndex(h Hasher) *credentialIndex {
	return &credentialIndex{
		hasher:  h,
		byEmail: make(map[string]credential),
	}
}

// put upserts the entry for email. The index is untouched when hashing fails.
func (c *credentialIndex) put(email, secret string, userID int) error {
	hash, err := c.hasher.Hash(secret)
	if err != nil {
		return err
	}
	c.byEmail[email] = credential{hash: hash, userID: userID}
	return nil
}

// lookup reports the user id for email only when secret matches. An unknown
// email and a wrong secret look the same to the caller.
func (c *credentialIndex) lookup(email, secret string) (int, bool) {
	cr, ok := c.byEmail[email]
	if !ok || !c.hasher.Matches(cr.hash, secret) {
		return 0, false
	}
	return cr.userID, true
}

func (c *credentialIndex) has(email string) bool {
	_, ok := c.byEmail[email]
	return ok
}

func (c *credentialIndex) changeSecret(email, oldSecret, newSecret string) bool {
	id, ok := c.lookup(email, oldSecret)
	if !ok {
		return false
	}
	hash, err := c.hasher.Hash(newSecret)
	if err != nil {
		return false
	}
	c.byEmail[email] = credential{hash: hash, userID: id}
	return true
}

func (c *credentialIndex) changeEmail(oldEmail, newEmail string) bool {
	cr, ok := c.byEmail[oldEmail]
	if !ok {
		return false
	}
	delete(c.byEmail, oldEmail)
	c.byEmail[newEmail] = cr
	return true
}

func (c *credentialIndex) remove(email, secret string) bool {
	if _, ok := c.lookup(email, secret); !ok {
		return false
	}
	delete(c.byEmail, email)
	return true
}

func (c *credentialIndex) clear() {
	clear(c.byEmail)
}

func (c *credentialIndex) entry(email string) (credential, bool) {
	cr, ok := c.byEmail[email]
	return cr, ok
}

func (c *credentialIndex) restore(email string, cr credential) {
	c.byEmail[email] = cr
}
