package handlers

import (
	"testing"

	"luontovahdit/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNearbyQuery(t *testing.T) {
	lon, lat, radius, err := parseNearbyQuery("24.94,60.17,25")
	require.NoError(t, err)
	assert.Equal(t, 24.94, lon)
	assert.Equal(t, 60.17, lat)
	assert.Equal(t, 25.0, radius)

	_, _, radius, err = parseNearbyQuery("24.94,60.17")
	require.NoError(t, err)
	assert.Zero(t, radius)

	// unreadable radius falls back to the default
	_, _, radius, err = parseNearbyQuery("24.94,60.17,far")
	require.NoError(t, err)
	assert.Zero(t, radius)

	for _, bad := range []string{"", "24.94", "x,60", "24,y", "1,2,3,4", "NaN,60"} {
		_, _, _, err := parseNearbyQuery(bad)
		assert.ErrorIs(t, err, services.ErrInvalidCoordinates, bad)
	}
}
