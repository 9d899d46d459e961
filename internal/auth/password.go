package auth

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost is applied when configuration supplies no usable cost.
// Tune the configured value to the deployment's hardware.
const DefaultBcryptCost = 12

// HashPassword hashes a plaintext password with the given bcrypt cost.
// Costs below the bcrypt minimum fall back to DefaultBcryptCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = DefaultBcryptCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its stored hash. The plaintext
// is never logged; mismatch timing is bcrypt's concern, not the caller's.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
