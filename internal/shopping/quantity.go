package shopping

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Numeric is a number typed by the user. It decodes from a JSON number or a
// string, and keeps the raw text so parsing rules stay in one place.
type Numeric string

func (n *Numeric) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Numeric(s)
		return nil
	}
	*n = Numeric(b)
	return nil
}

// Parse reads the value with "," or "." as decimal separator.
func (n Numeric) Parse() (float64, bool) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// plannedQuantity falls back to 1 when n is missing, unparsable or not positive.
func plannedQuantity(n Numeric) float64 {
	v, ok := n.Parse()
	if !ok || v <= 0 {
		return 1
	}
	return v
}

// nonNegative parses n and requires it to be >= 0.
func nonNegative(n Numeric) (float64, bool) {
	v, ok := n.Parse()
	if !ok || v < 0 {
		return 0, false
	}
	return v, true
}
