package extract

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNumericFormat is returned when a value field is present but neither
// numeric nor the NA token.
var ErrNumericFormat = errors.New("tender value not numeric")

// NormalizeValue converts the portal's tender value text into whole currency
// units.
//
// Thousands separators and the currency symbol are stripped. The literal
// token "NA" (any case) and the empty string map to nil: the portal uses
// both for tenders without a published value. Fractional values are
// truncated toward zero, matching the portal's own rounding on listings.
func NormalizeValue(raw string) (*int64, error) {
	clean := strings.ReplaceAll(raw, ",", "")
	clean = strings.ReplaceAll(clean, "₹", "")
	clean = strings.TrimSpace(clean)

	if clean == "" || strings.EqualFold(clean, "NA") {
		return nil, nil
	}

	// ParseFloat also accepts "NaN" and "Inf", which have no int64 and are
	// not tender values; treat them like any other non-numeric token.
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %q", ErrNumericFormat, raw)
	}

	v := int64(f)

	return &v, nil
}
