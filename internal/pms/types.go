package pms

import "strconv"

// RoomType is one bookable room category of a property.
type RoomType struct {
	RoomTypeID   string `json:"roomTypeID"`
	RoomTypeName string `json:"roomTypeName"`
}

// rateAmountKeys is the precedence order for resolving the numeric amount
// out of an opaque rate payload.
var rateAmountKeys = []string{"rate", "roomRate", "totalRate"}

// RateData is the opaque rate payload for one room type on one date, as
// returned by the PMS API. Fields beyond the amount keys are preserved and
// sent back unmodified on copy requests.
type RateData map[string]any

// Amount resolves the rate amount: "rate", else "roomRate", else
// "totalRate", else 0. Zero and non-numeric values are treated as absent,
// matching the upstream payloads where unset amounts appear as 0 or "".
func (r RateData) Amount() float64 {
	for _, key := range rateAmountKeys {
		if v := toFloat(r[key]); v != 0 {
			return v
		}
	}
	return 0
}

// SetAmount patches the amount into every amount key already present in the
// payload, so the copy request carries the override wherever the upstream
// expects it.
func (r RateData) SetAmount(amount float64) {
	for _, key := range rateAmountKeys {
		if _, ok := r[key]; ok {
			r[key] = amount
		}
	}
}

// Clone returns a shallow copy. Rate payloads are flat maps of scalars, so
// a shallow copy is enough to keep per-operation edits independent.
func (r RateData) Clone() RateData {
	if r == nil {
		return nil
	}
	out := make(RateData, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// toFloat coerces the loosely typed JSON values the PMS returns for
// amounts: numbers, or numbers serialized as strings.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
