package password

import "golang.org/x/crypto/bcrypt"

// DefaultCost is the bcrypt work factor used for stored credentials.
const DefaultCost = 12

// HashWithCost falls back to DefaultCost when cost is out of bcrypt's range.
func HashWithCost(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare checks plain against a stored hash. The hash comes first.
func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
