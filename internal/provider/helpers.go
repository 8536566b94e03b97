package provider

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNoData is returned when an upstream answers successfully but with an
// empty series.
var ErrNoData = errors.New("no data")

func derefFloat(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// parseIndexValue parses index readings that arrive as strings ("63", " 63.0").
func parseIndexValue(v string) (int, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrRange
	}
	return int(math.Round(f)), nil
}

// percentChange returns (current-previous)/previous*100, or 0 when previous
// is not positive.
func percentChange(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// recoverAsError turns a panic in a worker goroutine into *err. Panics there
// are out of reach of the caller's own recover.
func recoverAsError(op string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s panicked: %v", op, r)
	}
}
