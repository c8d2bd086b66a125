// internal/submission/latefee.go
package submission

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssessLateFee applies the club's deadline rule to a payment date. A payment
// made after deadlineDay of its month is late and carries the flat fee.
func AssessLateFee(paymentDate time.Time, deadlineDay int, lateFee decimal.Decimal) (bool, decimal.Decimal) {
	if paymentDate.Day() > deadlineDay {
		return true, lateFee
	}
	return false, decimal.Zero
}
