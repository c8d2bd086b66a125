package submission

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAssessLateFee(t *testing.T) {
	fee := decimal.NewFromInt(50)

	isLate, fine := AssessLateFee(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), 7, fee)
	assert.True(t, isLate)
	assert.True(t, fine.Equal(fee))

	isLate, fine = AssessLateFee(time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), 7, fee)
	assert.False(t, isLate)
	assert.True(t, fine.IsZero())

	// The deadline day itself is still on time.
	isLate, fine = AssessLateFee(time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC), 7, fee)
	assert.False(t, isLate)
	assert.True(t, fine.IsZero())
}
