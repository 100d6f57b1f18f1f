// Package dcmtime gives calendar meaning to the raw DA/DT/TM strings the
// core codec leaves untouched: parsing into a time.Time plus a
// PrecisionLevel recording how much of the value was actually present, and
// formatting back to the DICOM wire form.
package dcmtime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// PrecisionLevel records how much of a parsed Datetime/Date/Time value was
// present in the source string, from year-only up to full microsecond
// precision (PS3.5 Table 6.2-1's truncation rule: trailing components may
// be omitted together).
type PrecisionLevel int

const (
	PrecisionYear PrecisionLevel = iota
	PrecisionMonth
	PrecisionDay
	PrecisionHours
	PrecisionMinutes
	PrecisionSeconds
	PrecisionMS1
	PrecisionMS2
	PrecisionMS3
	PrecisionMS4
	PrecisionMS5
	PrecisionFull
)

func (p PrecisionLevel) String() string {
	switch p {
	case PrecisionYear:
		return "PrecisionYear"
	case PrecisionMonth:
		return "PrecisionMonth"
	case PrecisionDay:
		return "PrecisionDay"
	case PrecisionHours:
		return "PrecisionHours"
	case PrecisionMinutes:
		return "PrecisionMinutes"
	case PrecisionSeconds:
		return "PrecisionSeconds"
	case PrecisionMS1:
		return "PrecisionMS1"
	case PrecisionMS2:
		return "PrecisionMS2"
	case PrecisionMS3:
		return "PrecisionMS3"
	case PrecisionMS4:
		return "PrecisionMS4"
	case PrecisionMS5:
		return "PrecisionMS5"
	case PrecisionFull:
		return "PrecisionFull"
	default:
		return fmt.Sprintf("PrecisionLevel(%d)", int(p))
	}
}

// fracDigits returns how many fractional-second digits this precision
// carries (0 for anything coarser than seconds).
func (p PrecisionLevel) fracDigits() int {
	if p < PrecisionMS1 {
		return 0
	}
	return int(p-PrecisionMS1) + 1
}

// ErrParseDT is wrapped by every error ParseDatetime, ParseDate, and
// ParseTime return, so callers can test with errors.Is regardless of the
// specific malformed-input message.
var ErrParseDT = errors.New("dcmtime: malformed value")

// datetimePattern matches the DT VR (PS3.5 6.2): YYYY, with MM, DD, HH, MM,
// SS each optionally appended two digits at a time, an optional
// fractional-second suffix of 1-6 digits, and an optional &ZZXX UTC offset.
var datetimePattern = regexp.MustCompile(
	`^(\d{4})(\d{2})?(\d{2})?(\d{2})?(\d{2})?(\d{2})?(?:\.(\d{1,6}))?(?:([+-])(\d{2})(\d{2}))?$`,
)

// Datetime is a parsed DT value: the calendar instant, how precise the
// source string was, and whether it carried a UTC offset.
type Datetime struct {
	Time      time.Time
	Precision PrecisionLevel
	NoOffset  bool
}

// ParseDatetime parses a DT VR value into a Datetime, per PS3.5 Table
// 6.2-1's truncation rule: trailing components from seconds down to month
// may be omitted, in order (the year is required), and a fractional-second
// suffix and &ZZXX offset are each independently optional.
func ParseDatetime(s string) (Datetime, error) {
	m := datetimePattern.FindStringSubmatch(s)
	if m == nil {
		return Datetime{}, errors.Wrapf(ErrParseDT, "invalid DT value %q", s)
	}

	year, _ := strconv.Atoi(m[1])
	month, day, hour, minute, second := 1, 1, 0, 0, 0
	precision := PrecisionYear
	for i, dst := range []*int{&month, &day, &hour, &minute, &second} {
		g := m[2+i]
		if g == "" {
			break
		}
		v, _ := strconv.Atoi(g)
		*dst = v
		precision = PrecisionLevel(int(PrecisionMonth) + i)
	}

	nanos := 0
	if frac := m[7]; frac != "" {
		if precision != PrecisionSeconds {
			return Datetime{}, errors.Wrapf(ErrParseDT, "fractional seconds require full precision in %q", s)
		}
		nanos = fracToNanos(frac)
		precision = PrecisionMS1 + PrecisionLevel(len(frac)-1)
	}

	loc := time.UTC
	noOffset := true
	if sign := m[8]; sign != "" {
		noOffset = false
		offHours, _ := strconv.Atoi(m[9])
		offMinutes, _ := strconv.Atoi(m[10])
		seconds := offHours*3600 + offMinutes*60
		if sign == "-" {
			seconds = -seconds
		}
		loc = time.FixedZone("", seconds)
	}

	return Datetime{
		Time:      time.Date(year, time.Month(month), day, hour, minute, second, nanos, loc),
		Precision: precision,
		NoOffset:  noOffset,
	}, nil
}

func fracToNanos(frac string) int {
	padded := frac + strings.Repeat("0", 9-len(frac))
	n, _ := strconv.Atoi(padded)
	return n
}

// DCM renders dt back to its DT wire form at its own Precision, omitting
// the &ZZXX offset when NoOffset is set.
func (dt Datetime) DCM() string {
	var b strings.Builder
	t := dt.Time

	fmt.Fprintf(&b, "%04d", t.Year())
	if dt.Precision >= PrecisionMonth {
		fmt.Fprintf(&b, "%02d", int(t.Month()))
	}
	if dt.Precision >= PrecisionDay {
		fmt.Fprintf(&b, "%02d", t.Day())
	}
	if dt.Precision >= PrecisionHours {
		fmt.Fprintf(&b, "%02d", t.Hour())
	}
	if dt.Precision >= PrecisionMinutes {
		fmt.Fprintf(&b, "%02d", t.Minute())
	}
	if dt.Precision >= PrecisionSeconds {
		fmt.Fprintf(&b, "%02d", t.Second())
	}
	if dt.Precision >= PrecisionMS1 {
		digits := dt.Precision.fracDigits()
		nanos := fmt.Sprintf("%09d", t.Nanosecond())
		b.WriteByte('.')
		b.WriteString(nanos[:digits])
	}
	if !dt.NoOffset {
		_, offset := t.Zone()
		sign := byte('+')
		if offset < 0 {
			sign = '-'
			offset = -offset
		}
		fmt.Fprintf(&b, "%c%02d%02d", sign, offset/3600, (offset%3600)/60)
	}
	return b.String()
}

// String renders dt in a human-readable form, mirroring time.Time's own
// "2006-01-02 15:04:05.999999999 -0700 MST" style truncated to Precision.
func (dt Datetime) String() string {
	var b strings.Builder
	t := dt.Time

	fmt.Fprintf(&b, "%04d", t.Year())
	if dt.Precision >= PrecisionMonth {
		fmt.Fprintf(&b, "-%02d", int(t.Month()))
	}
	if dt.Precision >= PrecisionDay {
		fmt.Fprintf(&b, "-%02d", t.Day())
	}
	if dt.Precision >= PrecisionHours {
		fmt.Fprintf(&b, " %02d", t.Hour())
	}
	if dt.Precision >= PrecisionMinutes {
		fmt.Fprintf(&b, ":%02d", t.Minute())
	}
	if dt.Precision >= PrecisionSeconds {
		fmt.Fprintf(&b, ":%02d", t.Second())
	}
	if dt.Precision >= PrecisionMS1 {
		digits := dt.Precision.fracDigits()
		nanos := fmt.Sprintf("%09d", t.Nanosecond())
		b.WriteByte('.')
		b.WriteString(nanos[:digits])
	}
	if !dt.NoOffset {
		_, offset := t.Zone()
		sign := byte('+')
		if offset < 0 {
			sign = '-'
			offset = -offset
		}
		fmt.Fprintf(&b, " %c%02d:%02d", sign, offset/3600, (offset%3600)/60)
	}
	return b.String()
}

// datePattern matches the DA VR (PS3.5 6.2): an 8-digit YYYYMMDD value.
var datePattern = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)

// ParseDate parses a DA VR value, always fully precise (DA carries no
// truncation rule, unlike DT and TM).
func ParseDate(s string) (time.Time, error) {
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, errors.Wrapf(ErrParseDT, "invalid DA value %q", s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// timePattern matches the TM VR (PS3.5 6.2): HH, with MM and SS optionally
// appended two digits at a time, and an optional fractional-second suffix.
var timePattern = regexp.MustCompile(`^(\d{2})(\d{2})?(\d{2})?(?:\.(\d{1,6}))?$`)

// Time is a parsed TM value: a time-of-day (calendar date fields zero) and
// the precision the source string carried.
type Time struct {
	Time      time.Time
	Precision PrecisionLevel
}

// ParseTime parses a TM VR value, per PS3.5 Table 6.2-1's truncation rule:
// trailing components from seconds down to minutes may be omitted, in
// order (the hour is required).
func ParseTime(s string) (Time, error) {
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return Time{}, errors.Wrapf(ErrParseDT, "invalid TM value %q", s)
	}

	hour, _ := strconv.Atoi(m[1])
	minute, second := 0, 0
	precision := PrecisionHours
	for i, dst := range []*int{&minute, &second} {
		g := m[2+i]
		if g == "" {
			break
		}
		v, _ := strconv.Atoi(g)
		*dst = v
		precision = PrecisionLevel(int(PrecisionMinutes) + i)
	}

	nanos := 0
	if frac := m[4]; frac != "" {
		if precision != PrecisionSeconds {
			return Time{}, errors.Wrapf(ErrParseDT, "fractional seconds require full precision in %q", s)
		}
		nanos = fracToNanos(frac)
		precision = PrecisionMS1 + PrecisionLevel(len(frac)-1)
	}

	return Time{
		Time:      time.Date(0, 1, 1, hour, minute, second, nanos, time.UTC),
		Precision: precision,
	}, nil
}
