// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package money provides an exact two-decimal currency amount.
//
// Premiums, coverage amounts, claim amounts and payments are all fixed at
// two fractional digits, and the payment workflow depends on exact equality
// between a payment and the policy premium. Floating point cannot express
// that comparison safely, so Amount stores integer cents.
//
// Amount serializes as a JSON number with two decimals ("500.00") and
// persists as an integer cents column.
package money

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Amount is a currency value in integer cents.
//
// The zero value is 0.00. Amounts compare with ==; two amounts are the
// same money if and only if they are the same number of cents.
type Amount int64

// FromCents returns the Amount for a raw cent count.
func FromCents(cents int64) Amount {
	return Amount(cents)
}

// Parse converts a decimal string such as "500.00", "499.99" or "500"
// into an Amount.
//
// At most two fractional digits are accepted; "1.005" is rejected rather
// than rounded, because silently rounding would let a payment that does not
// equal the premium slip through as if it did.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse amount: empty string")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if s == "" {
		return 0, fmt.Errorf("parse amount: missing digits")
	}

	// Only bare digits on either side of the point. ParseInt alone would
	// also accept a sign, letting "1.-5" slip through as 0.95.
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, fmt.Errorf("parse amount %q: not a decimal number", s)
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}

	var cents int64
	switch len(frac) {
	case 0:
	case 1:
		d, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse amount %q: %w", s, err)
		}
		cents = d * 10
	case 2:
		d, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse amount %q: %w", s, err)
		}
		cents = d
	default:
		return 0, fmt.Errorf("parse amount %q: more than two decimal places", s)
	}

	total := units*100 + cents
	if neg {
		total = -total
	}
	return Amount(total), nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Cents returns the raw cent count.
func (a Amount) Cents() int64 {
	return int64(a)
}

// Add returns the sum of two amounts.
func (a Amount) Add(b Amount) Amount {
	return a + b
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a > 0
}

// String formats the amount with exactly two decimal places, e.g. "500.00".
func (a Amount) String() string {
	cents := int64(a)
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// MarshalJSON encodes the amount as a bare JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts either a JSON number (500.00) or a quoted decimal
// string ("500.00").
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer; amounts persist as integer cents.
func (a Amount) Value() (driver.Value, error) {
	return int64(a), nil
}

// Scan implements sql.Scanner for integer, float and text columns.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = 0
		return nil
	case int64:
		*a = Amount(v)
		return nil
	case float64:
		// Some drivers surface INTEGER columns as float64.
		*a = Amount(int64(v))
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	default:
		return fmt.Errorf("scan amount: unsupported type %T", src)
	}
}
