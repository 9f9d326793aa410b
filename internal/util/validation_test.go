package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidUUID(t *testing.T) {
	t.Run("accepts lowercase v4 uuid", func(t *testing.T) {
		assert.True(t, IsValidUUID("3e0bd9a2-7c4e-4b4e-9f6a-1c2d3e4f5a6b"))
	})

	t.Run("rejects empty string", func(t *testing.T) {
		assert.False(t, IsValidUUID(""))
	})

	t.Run("rejects uppercase", func(t *testing.T) {
		assert.False(t, IsValidUUID("3E0BD9A2-7C4E-4B4E-9F6A-1C2D3E4F5A6B"))
	})

	t.Run("rejects missing dashes", func(t *testing.T) {
		assert.False(t, IsValidUUID("3e0bd9a27c4e4b4e9f6a1c2d3e4f5a6b"))
	})
}

func TestIsValidEmail(t *testing.T) {
	t.Run("accepts plain address", func(t *testing.T) {
		assert.True(t, IsValidEmail("client@agency.com"))
	})

	t.Run("accepts plus addressing", func(t *testing.T) {
		assert.True(t, IsValidEmail("client+insta@agency.com"))
	})

	t.Run("rejects empty string", func(t *testing.T) {
		assert.False(t, IsValidEmail(""))
	})

	t.Run("rejects missing at sign", func(t *testing.T) {
		assert.False(t, IsValidEmail("client.agency.com"))
	})

	t.Run("rejects missing domain dot", func(t *testing.T) {
		assert.False(t, IsValidEmail("client@agency"))
	})
}
