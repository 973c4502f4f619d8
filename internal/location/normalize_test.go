package location

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logiledger-api-server/internal/models"
)

func TestNormalizeLocation(t *testing.T) {
	loc := NormalizeLocation("Chennai, Tamil Nadu")
	require.NotNil(t, loc)
	assert.Equal(t, "Chennai", loc.City)
	assert.Equal(t, "Tamil Nadu", loc.State)
	assert.Equal(t, "Chennai, Tamil Nadu", loc.FullAddress)

	single := NormalizeLocation("  Delhi ")
	require.NotNil(t, single)
	assert.Equal(t, "Delhi", single.City)
	assert.Equal(t, "Delhi", single.State)

	assert.Nil(t, NormalizeLocation(""))
	assert.Nil(t, NormalizeLocation("   "))
	assert.Nil(t, NormalizeLocation(" , "))
}

func TestResolve(t *testing.T) {
	var in models.LocationInput
	require.NoError(t, json.Unmarshal([]byte(`"Mumbai, Maharashtra"`), &in))
	loc := Resolve(in)
	require.NotNil(t, loc)
	assert.Equal(t, "Mumbai", loc.City)
	assert.Equal(t, "Maharashtra", loc.State)

	require.NoError(t, json.Unmarshal([]byte(`{"city":" Bangalore ","state":"Karnataka","pincode":"560001","coordinates":{"latitude":12.97,"longitude":77.59}}`), &in))
	loc = Resolve(in)
	require.NotNil(t, loc)
	assert.Equal(t, "Bangalore", loc.City)
	assert.Equal(t, "Bangalore, Karnataka", loc.FullAddress)
	require.NotNil(t, loc.Coordinates)
	assert.Equal(t, 77.59, loc.Coordinates.Longitude())

	require.NoError(t, json.Unmarshal([]byte(`{"city":"X","coordinates":{"latitude":123,"longitude":0}}`), &in))
	loc = Resolve(in)
	require.NotNil(t, loc)
	assert.Equal(t, "X", loc.State)
	assert.Nil(t, loc.Coordinates)

	assert.Nil(t, Resolve(models.LocationInput{Value: &models.Location{State: "Goa"}}))
	assert.Nil(t, Resolve(models.LocationInput{}))
}
