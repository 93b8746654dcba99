package server

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-lms-client/users"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	user         users.User
	passwordHash string
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidatePasswordStrength checks if password meets the backend's requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	return nil
}

// addAccount stores a new user. The caller holds the write lock.
func (s *Server) addAccount(u users.User, password string) (*account, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if _, exists := s.byEmail[email]; exists {
		return nil, fmt.Errorf("email already exists")
	}
	for _, a := range s.accounts {
		if strings.EqualFold(a.user.Username, u.Username) {
			return nil, fmt.Errorf("username already exists")
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.Email = email
	now := s.now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	a := &account{user: u, passwordHash: hash}
	s.accounts[u.ID] = a
	s.byEmail[email] = u.ID
	return a, nil
}

// accountByEmail returns a copy of the account. The caller holds a lock.
func (s *Server) accountByEmail(email string) (*account, bool) {
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, false
	}
	return s.accounts[id], true
}

func (s *Server) lookupUser(id string) (users.User, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return users.User{}, false
	}
	return a.user, true
}
