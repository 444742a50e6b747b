package password

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := HashWithCost("secret", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "secret", hash)

	require.NoError(t, Compare(hash, "secret"))
	require.Error(t, Compare(hash, "wrong"))
}

func TestCompareArgumentOrderMatters(t *testing.T) {
	hash, err := HashWithCost("secret", bcrypt.MinCost)
	require.NoError(t, err)
	require.Error(t, Compare("secret", hash))
}

func TestHashUsesDefaultCost(t *testing.T) {
	hash, err := HashWithCost("secret", 0)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	require.Equal(t, DefaultCost, cost)
}
