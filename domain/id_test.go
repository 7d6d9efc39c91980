package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsID(t *testing.T) {
	assert.True(t, IsID("8a0e2b44-53a4-4f0e-9d55-31b7c0d1c2a1"))
	assert.True(t, IsID("8A0E2B44-53A4-4F0E-9D55-31B7C0D1C2A1"))

	for _, s := range []string{"", "abc", "not-a-uuid", "urn:uuid:8a0e2b44-53a4-4f0e-9d55-31b7c0d1c2a1", "{8a0e2b44-53a4-4f0e-9d55-31b7c0d1c2a1}"} {
		assert.False(t, IsID(s), s)
	}
}
