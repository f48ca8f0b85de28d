package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Ratings is the ordered list of raw rating strings attached to a product,
// persisted as JSONB. Each well-formed entry starts with a digit 1-5 followed
// by a free-text comment.
type Ratings []string

// Value marshals the slice into JSON for Postgres.
func (r Ratings) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	buf, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the slice.
func (r *Ratings) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("ratings: unsupported scan type %T", value)
	}

	result := make(Ratings, 0)
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*r = result
	return nil
}

// Score extracts the leading 1-5 digit of a single rating string. The second
// return value is false for malformed entries (empty, or not starting with a
// digit in range), which are excluded from averages rather than reported as
// errors.
func Score(rating string) (int, bool) {
	if rating == "" {
		return 0, false
	}
	c := rating[0]
	if c < '1' || c > '5' {
		return 0, false
	}
	return int(c - '0'), true
}

// Average returns the arithmetic mean of the leading digits across all
// well-formed entries. Malformed entries are skipped; when nothing remains
// the average is 0.
func (r Ratings) Average() float64 {
	var sum, count int
	for _, rating := range r {
		score, ok := Score(rating)
		if !ok {
			continue
		}
		sum += score
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

// Clone returns an independent copy so cart line items can own their snapshot.
func (r Ratings) Clone() Ratings {
	if r == nil {
		return nil
	}
	out := make(Ratings, len(r))
	copy(out, r)
	return out
}
