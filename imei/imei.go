// Package imei computes and validates the Luhn-style check digit carried by
// International Mobile Equipment Identity numbers.
package imei

import (
	"errors"
	"strconv"
)

// BodyLength is the number of digits the check digit is computed over.
const BodyLength = 14

// ErrInvalidDigits is returned when the body contains anything but decimal digits.
var ErrInvalidDigits = errors.New("imei: body must contain only decimal digits")

// CheckDigit returns the check digit for body.
//
// Digits are walked from the right: those at even positions are doubled and
// their decimal digits summed, those at odd positions are added as they are.
// The result is 10 - total%10 rendered in decimal, so a total that is a
// multiple of ten yields "10".
func CheckDigit(body string) (string, error) {
	if body == "" {
		return "", ErrInvalidDigits
	}
	total := 0
	for pos := 0; pos < len(body); pos++ {
		c := body[len(body)-1-pos]
		if c < '0' || c > '9' {
			return "", ErrInvalidDigits
		}
		d := int(c - '0')
		if pos%2 == 0 {
			d *= 2
			d = d/10 + d%10
		}
		total += d
	}
	return strconv.Itoa(10 - total%10), nil
}

// Append returns body followed by its check digit.
func Append(body string) (string, error) {
	digit, err := CheckDigit(body)
	if err != nil {
		return "", err
	}
	return body + digit, nil
}

// Valid reports whether the last digit of imei is the check digit of the
// digits before it. A body whose check digit is "10" never validates.
func Valid(imei string) bool {
	if len(imei) != BodyLength+1 {
		return false
	}
	full, err := Append(imei[:BodyLength])
	if err != nil {
		return false
	}
	return full == imei
}
