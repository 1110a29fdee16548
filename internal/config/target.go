package config

import (
	"fmt"
	"strconv"
	"strings"

	"mlens-core/kinematics"
)

// ParseTarget reads "ra dec" in decimal degrees. A comma may separate the
// two values.
func ParseTarget(s string) (kinematics.Target, error) {
	f := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(f) != 2 {
		return kinematics.Target{}, fmt.Errorf("target %q: want ra and dec in degrees: %w", s, kinematics.ErrTarget)
	}
	ra, err1 := strconv.ParseFloat(f[0], 64)
	dec, err2 := strconv.ParseFloat(f[1], 64)
	if err1 != nil || err2 != nil {
		return kinematics.Target{}, fmt.Errorf("target %q: not numeric: %w", s, kinematics.ErrTarget)
	}
	tg := kinematics.Target{RA: ra, Dec: dec}
	if err := tg.Validate(); err != nil {
		return kinematics.Target{}, fmt.Errorf("target %q: %w", s, err)
	}
	return tg, nil
}
