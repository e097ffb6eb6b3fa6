// Package review holds the spaced-repetition rule used by personal review cards.
package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Difficulty is the rating a user gives a card after reviewing it.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Days until the next review for each rating.
var offsetDays = map[Difficulty]int{
	Easy:   7,
	Medium: 3,
	Hard:   1,
}

var (
	_ fmt.Stringer     = Difficulty("")
	_ json.Unmarshaler = (*Difficulty)(nil)
)

// ErrInvalidDifficulty is returned when a rating is not easy, medium or hard.
var ErrInvalidDifficulty = errors.New("difficulty must be one of easy, medium, hard")

// ParseDifficulty accepts the rating names case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", fmt.Errorf("%w: got %q", ErrInvalidDifficulty, s)
	}
	return d, nil
}

func (d Difficulty) IsValid() bool {
	_, ok := offsetDays[d]
	return ok
}

func (d Difficulty) String() string { return string(d) }

// Offset returns how far after a review the next one is due.
// Unknown ratings have no offset.
func (d Difficulty) Offset() time.Duration {
	return time.Duration(offsetDays[d]) * 24 * time.Hour
}

// UnmarshalJSON rejects anything outside the three ratings. An empty string is kept as the zero value.
func (d *Difficulty) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("difficulty must be a string: %w", err)
	}
	if s == "" {
		*d = ""
		return nil
	}
	parsed, err := ParseDifficulty(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Schedule computes the review timestamps for a card rated d at now.
// lastReviewed is always now; nextReview is now plus 7, 3 or 1 calendar days
// for easy, medium and hard.
func Schedule(now time.Time, d Difficulty) (lastReviewed, nextReview time.Time) {
	return now, now.AddDate(0, 0, offsetDays[d])
}
