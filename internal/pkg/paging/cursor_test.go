package paging

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCursorRoundTrip(t *testing.T) {
	id := uuid.New()
	ts := time.Date(2025, 6, 15, 10, 30, 0, 123456789, time.UTC)

	cursor := EncodeCursor(ts, id)
	assert.NotEmpty(t, cursor)

	gotT, gotID, err := DecodeCursor(cursor)
	assert.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.True(t, ts.Equal(gotT))
}

func TestDecodeCursor_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"no separator", "bm9zZXBhcmF0b3I"},
		{"bad timestamp", "YWJjfDAxOTAwMDAw"},
		{"bad uuid", "MTcwMDAwMDAwMDAwMDAwMDAwMHxub3QtYS11dWlk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeCursor(tt.cursor)
			assert.Error(t, err)
		})
	}
}
