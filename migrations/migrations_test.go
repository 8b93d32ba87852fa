package migrations

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingsPrimaryKeyFitsReservationIds(t *testing.T) {
	collection := &core.Collection{}
	require.NoError(t, json.Unmarshal([]byte(bookingsCollectionJSON), collection))

	field, ok := collection.Fields.GetByName("id").(*core.TextField)
	require.True(t, ok, "bookings must override the id field")
	assert.True(t, field.PrimaryKey)
	assert.Equal(t, 36, field.Min)
	assert.Equal(t, 36, field.Max)
	assert.Empty(t, field.AutogeneratePattern)

	re := regexp.MustCompile(field.Pattern)
	assert.True(t, re.MatchString("7ad0cfc4-61f2-4b0c-8f4b-915e0a3ab2f1"))
	// The stock 15-char PocketBase id shape must not slip through.
	assert.False(t, re.MatchString("abc123def456ghi"))
}
