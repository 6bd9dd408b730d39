package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	s := &UserService{}

	hash, err := s.hashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, s.checkPassword(hash, "correct horse battery staple"))
	assert.False(t, s.checkPassword(hash, "wrong password"))
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	t.Parallel()

	s := &UserService{}

	h1, err := s.hashPassword("same")
	require.NoError(t, err)
	h2, err := s.hashPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "each hash must carry its own salt")
	assert.True(t, s.checkPassword(h1, "same"))
	assert.True(t, s.checkPassword(h2, "same"))
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	s := &UserService{}

	assert.False(t, s.checkPassword("", "pw"))
	assert.False(t, s.checkPassword("no-separator", "pw"))
	assert.False(t, s.checkPassword("!!!$???", "pw"))
}
