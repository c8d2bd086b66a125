package member

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDNumberValid(t *testing.T) {
	details, err := ParseIDNumber("8001015009087", 30)
	require.NoError(t, err)

	assert.Equal(t, time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC), details.DateOfBirth)
	assert.Equal(t, GenderMale, details.Gender)
}

func TestParseIDNumberSingleDigitMutationFailsChecksum(t *testing.T) {
	const valid = "8001015009087"
	for i := 0; i < len(valid); i++ {
		mutated := []byte(valid)
		mutated[i] = '0' + (mutated[i]-'0'+1)%10
		_, err := ParseIDNumber(string(mutated), 30)
		assert.ErrorIs(t, err, ErrInvalidIDNumber, "position %d", i)
	}
}

func TestParseIDNumberRejectsBadShapes(t *testing.T) {
	cases := []string{
		"",
		"80010150090",     // too short
		"80010150090870",  // too long
		"800101500908a",   // non-digit
		"8013015009082",   // month 13, checksum holds
	}
	for _, c := range cases {
		_, err := ParseIDNumber(c, 30)
		assert.ErrorIs(t, err, ErrInvalidIDNumber, c)
	}
}

func TestParseIDNumberCenturyCutoff(t *testing.T) {
	// Year digits 80 with cutoff 30 resolve to 1980; with cutoff 85 to 2080.
	details, err := ParseIDNumber("8001015009087", 30)
	require.NoError(t, err)
	assert.Equal(t, 1980, details.DateOfBirth.Year())

	details, err = ParseIDNumber("8001015009087", 85)
	require.NoError(t, err)
	assert.Equal(t, 2080, details.DateOfBirth.Year())
}

func TestParseIDNumberGenderSequence(t *testing.T) {
	// 8001014xxx... with a sequence below 5000 reads as female. The checksum
	// digit is recomputed for the altered sequence.
	details, err := ParseIDNumber("8001014009088", 30)
	require.NoError(t, err)
	assert.Equal(t, GenderFemale, details.Gender)
}
