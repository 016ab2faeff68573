package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword one-way hashes a secret before it is persisted. The plain
// secret is never stored anywhere.
func HashPassword(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// CheckPassword reports whether a candidate secret matches a stored hash.
// An empty hash (OAuth-only account) never matches.
func CheckPassword(hash, secret string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
