package slug

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Planning", "planning"},
		{"spaces collapse to hyphens", "FY 2025 Audit", "fy-2025-audit"},
		{"punctuation runs collapse", "Acme, Inc. -- Audit!", "acme-inc-audit"},
		{"leading and trailing junk", "  ***Audit***  ", "audit"},
		{"empty", "", ""},
		{"only junk", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Make(tt.input))
		})
	}
}

func TestUnique(t *testing.T) {
	t.Run("free slug is returned as-is", func(t *testing.T) {
		got, err := Unique("FY 2025 Audit", func(slug string, excludeID uuid.UUID) (bool, error) {
			return false, nil
		}, uuid.Nil)
		assert.NoError(t, err)
		assert.Equal(t, "fy-2025-audit", got)
	})

	t.Run("collisions get a numeric suffix", func(t *testing.T) {
		taken := map[string]bool{"fy-2025-audit": true, "fy-2025-audit-2": true}
		got, err := Unique("FY 2025 Audit", func(slug string, excludeID uuid.UUID) (bool, error) {
			return taken[slug], nil
		}, uuid.Nil)
		assert.NoError(t, err)
		assert.Equal(t, "fy-2025-audit-3", got)
	})

	t.Run("blank name falls back to untitled", func(t *testing.T) {
		got, err := Unique("???", func(slug string, excludeID uuid.UUID) (bool, error) {
			return false, nil
		}, uuid.Nil)
		assert.NoError(t, err)
		assert.Equal(t, "untitled", got)
	})

	t.Run("exclude id is forwarded to the lookup", func(t *testing.T) {
		selfID := uuid.New()
		var seen uuid.UUID
		_, err := Unique("Audit", func(slug string, excludeID uuid.UUID) (bool, error) {
			seen = excludeID
			return false, nil
		}, selfID)
		assert.NoError(t, err)
		assert.Equal(t, selfID, seen)
	})

	t.Run("lookup error propagates", func(t *testing.T) {
		_, err := Unique("Audit", func(slug string, excludeID uuid.UUID) (bool, error) {
			return false, errors.New("db down")
		}, uuid.Nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
	})
}
