package validation

import (
	"regexp"
	"strings"
	"time"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

func ValidateEmail(email string) bool {
	email = strings.TrimSpace(email)
	return email != "" && emailRegex.MatchString(email) && len(email) <= 200
}

func ValidatePhone(phone string) bool {
	phone = strings.TrimSpace(phone)
	return phone != "" && phoneRegex.MatchString(phone) && len(phone) <= 50
}

func ValidateName(name string) bool {
	name = strings.TrimSpace(name)
	return len(name) >= 2 && len(name) <= 200
}

func ValidatePassword(password string) bool {
	return len(password) >= 6 && len(password) <= 100
}

func ValidateSeats(seats int) bool {
	return seats >= 1 && seats <= 20
}

func ValidatePrice(price float64) bool {
	return price > 0
}

// ValidateDeparture parses a "2006-01-02" date plus a "15:04" time in the
// local zone and reports whether the departure is still in the future.
// Unparseable input is invalid.
func ValidateDeparture(fecha, hora string, now time.Time) bool {
	dep, err := time.ParseInLocation("2006-01-02 15:04", fecha+" "+hora, now.Location())
	if err != nil {
		return false
	}
	return !dep.Before(now)
}
