package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("alice@example.com"))
	assert.True(t, ValidateEmail("a.b+c@sub.example.co"))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail("missing@tld"))
	assert.False(t, ValidateEmail(""))
}

func TestValidateUsername(t *testing.T) {
	assert.True(t, ValidateUsername("alice"))
	assert.True(t, ValidateUsername("alice_99"))
	assert.False(t, ValidateUsername("ab"))
	assert.False(t, ValidateUsername("has space"))
	assert.False(t, ValidateUsername("dash-not-ok"))
	assert.False(t, ValidateUsername("waaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaay_too_long"))
}

func TestValidatePassword(t *testing.T) {
	assert.True(t, ValidatePassword("Password123"))
	assert.False(t, ValidatePassword("short1A"))
	assert.False(t, ValidatePassword("alllowercase1"))
	assert.False(t, ValidatePassword("ALLUPPERCASE1"))
	assert.False(t, ValidatePassword("NoNumbersHere"))
}

func TestSanitizeIdentifier(t *testing.T) {
	assert.Equal(t, "alice", SanitizeIdentifier("  Alice  "))
	assert.Equal(t, "alice@example.com", SanitizeIdentifier("ALICE@Example.COM"))
	assert.Equal(t, "scriptalert(1)/script", SanitizeIdentifier(`<script>alert("1")</script>`))
	assert.Equal(t, "bob", SanitizeIdentifier(`bob'"`))
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("Password123", 4)
	assert.NoError(t, err)
	assert.NotEqual(t, "Password123", hash)

	assert.True(t, CheckPasswordHash("Password123", hash))
	assert.False(t, CheckPasswordHash("Wrong1", hash))
}
