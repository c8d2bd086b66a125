// internal/member/idnumber.go
package member

import (
	"errors"
	"time"
)

var ErrInvalidIDNumber = errors.New("invalid national ID number")

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// IDDetails is what a valid 13-digit South African ID number encodes.
type IDDetails struct {
	DateOfBirth time.Time
	Gender      string
}

// ParseIDNumber validates a 13-digit national ID and extracts the holder's
// date of birth and gender. Digits 1-6 are a YYMMDD birth date, digits 7-10
// a gender sequence (5000 and above is male), and the whole number must pass
// the Luhn-style checksum. Birth years above centuryCutoff are read as 19xx,
// the rest as 20xx.
func ParseIDNumber(id string, centuryCutoff int) (*IDDetails, error) {
	if len(id) != 13 {
		return nil, ErrInvalidIDNumber
	}
	digits := make([]int, 13)
	for i, r := range id {
		if r < '0' || r > '9' {
			return nil, ErrInvalidIDNumber
		}
		digits[i] = int(r - '0')
	}

	// Checksum: double every digit at an odd index, fold back values over 9.
	sum := 0
	for i, d := range digits {
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	if sum%10 != 0 {
		return nil, ErrInvalidIDNumber
	}

	year := digits[0]*10 + digits[1]
	month := digits[2]*10 + digits[3]
	day := digits[4]*10 + digits[5]
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil, ErrInvalidIDNumber
	}
	if year > centuryCutoff {
		year += 1900
	} else {
		year += 2000
	}

	gender := GenderFemale
	seq := digits[6]*1000 + digits[7]*100 + digits[8]*10 + digits[9]
	if seq >= 5000 {
		gender = GenderMale
	}

	return &IDDetails{
		DateOfBirth: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC),
		Gender:      gender,
	}, nil
}
