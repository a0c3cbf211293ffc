package store

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrNoDocument    = errors.New("no document stored")
)

const incorrectCredentials = "Username or password is incorrect"

// CredentialScheme turns a password into its stored form and checks a
// supplied password against it.
type CredentialScheme interface {
	Hash(password string) (string, error)
	Verify(stored, supplied string) bool
}

// PlaintextScheme stores passwords as given and compares them verbatim.
type PlaintextScheme struct{}

func (PlaintextScheme) Hash(password string) (string, error) {
	return password, nil
}

func (PlaintextScheme) Verify(stored, supplied string) bool {
	return stored == supplied
}

// BcryptScheme stores bcrypt hashes.
type BcryptScheme struct {
	Cost int
}

func (b BcryptScheme) Hash(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hashed), nil
}

func (BcryptScheme) Verify(stored, supplied string) bool {
	if stored == "" || supplied == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
}

// SchemeByName maps a config value to a scheme.
func SchemeByName(name string) (CredentialScheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "plaintext", "plain":
		return PlaintextScheme{}, nil
	case "bcrypt":
		return BcryptScheme{}, nil
	default:
		return nil, errors.Errorf("unknown password scheme %q", name)
	}
}

// Authenticate resolves username to a user and checks the password.
func (s *Store) Authenticate(username, password string) LoginResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.doc.Usernames[username]
	if !ok {
		return LoginResult{Message: incorrectCredentials}
	}
	user, ok := s.doc.Users[userID]
	if !ok || !s.scheme.Verify(user.Password, password) {
		return LoginResult{Message: incorrectCredentials}
	}
	profile := s.profileLocked(userID)
	return LoginResult{User: &profile}
}
