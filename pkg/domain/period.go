package domain

import (
	"fmt"
	"strings"
)

// PeriodUnit is the cadence over which a usage quota accumulates.
type PeriodUnit string

const (
	PeriodUnitWeek  PeriodUnit = "WEEK"
	PeriodUnitMonth PeriodUnit = "MONTH"
	PeriodUnitTotal PeriodUnit = "TOTAL"
)

// Period is a quota period such as "1 week" or "lifetime". Values are built
// with Week, Month, Total or ParsePeriod; the zero Period has no unit.
type Period struct {
	unit   PeriodUnit
	length int
}

// Week returns a rolling period of n weeks.
func Week(n int) Period {
	return Period{unit: PeriodUnitWeek, length: n}
}

// Month returns a rolling period of n calendar months.
func Month(n int) Period {
	return Period{unit: PeriodUnitMonth, length: n}
}

// Total returns the lifetime period.
func Total() Period {
	return Period{unit: PeriodUnitTotal, length: 1}
}

// ParsePeriod builds a Period from its stored representation.
// Unknown units are rejected.
func ParsePeriod(unit string, length int) (Period, error) {
	switch PeriodUnit(strings.ToUpper(strings.TrimSpace(unit))) {
	case PeriodUnitWeek:
		return Week(length), nil
	case PeriodUnitMonth:
		return Month(length), nil
	case PeriodUnitTotal:
		return Period{unit: PeriodUnitTotal, length: length}, nil
	default:
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriodUnit, unit)
	}
}

// Unit returns the period unit, empty for the zero Period.
func (p Period) Unit() PeriodUnit {
	return p.unit
}

// Length returns the number of units in the period.
func (p Period) Length() int {
	return p.length
}

// IsSet reports whether the period carries a unit.
func (p Period) IsSet() bool {
	return p.unit != ""
}

// String returns a human readable form, e.g. "1 WEEK".
func (p Period) String() string {
	if !p.IsSet() {
		return "unset"
	}
	if p.unit == PeriodUnitTotal {
		return string(PeriodUnitTotal)
	}
	return fmt.Sprintf("%d %s", p.length, p.unit)
}
