package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/famhub/famhub/internal/server/models"
)

// Canonical textual datetime layouts. Naive values (no offset) represent
// local wall-clock time in an as-yet-unspecified zone and must round-trip
// unchanged; values with an explicit offset keep it. No forced UTC
// conversion anywhere.
const (
	layoutDateOnly   = "2006-01-02"
	layoutNaive      = "2006-01-02T15:04:05"
	layoutNaiveSpace = "2006-01-02 15:04:05"
)

// defaultEventDuration is used when no end time, provider-echoed end, or
// metadata duration yields a positive duration. Some upstream calendar
// webhooks deliver zero-length recurring-event instances; without this the
// stored events would be invisible slivers.
const defaultEventDuration = 60 * time.Minute

// wallTime is a parsed datetime plus the knowledge of whether the input
// carried a UTC offset. Naive values are held in time.UTC purely as a
// container for wall-clock arithmetic.
type wallTime struct {
	t         time.Time
	hasOffset bool
}

func parseDateTime(s string) (wallTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return wallTime{}, fmt.Errorf("empty datetime")
	}
	if t, err := time.Parse(layoutDateOnly, s); err == nil {
		return wallTime{t: t}, nil
	}
	if t, err := time.Parse(layoutNaive, s); err == nil {
		return wallTime{t: t}, nil
	}
	if t, err := time.Parse(layoutNaiveSpace, s); err == nil {
		return wallTime{t: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return wallTime{t: t, hasOffset: true}, nil
	}
	return wallTime{}, fmt.Errorf("unrecognized datetime %q", s)
}

// String renders the canonical textual form: naive values without offset,
// offset-qualified values in RFC 3339 with their original offset.
func (w wallTime) String() string {
	if w.hasOffset {
		return w.t.Format(time.RFC3339)
	}
	return w.t.Format(layoutNaive)
}

func (w wallTime) add(d time.Duration) wallTime {
	return wallTime{t: w.t.Add(d), hasOffset: w.hasOffset}
}

// after compares wall-clock instants. Mixing naive and offset-qualified
// values compares the naive one as if it were UTC; identity keys come from
// one upstream per record so in practice both ends share a style.
func (w wallTime) after(other wallTime) bool {
	return w.t.After(other.t)
}

// startOfDay truncates to the date at nominal midnight, dropping any offset.
func (w wallTime) startOfDay() wallTime {
	y, m, d := w.t.Date()
	return wallTime{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// NormalizeDateTime canonicalizes a date-only, naive, or offset-qualified
// datetime string. Date-only input gains T00:00:00; everything else
// round-trips preserving its original offset (or lack of one).
func NormalizeDateTime(s string) (string, error) {
	w, err := parseDateTime(s)
	if err != nil {
		return "", err
	}
	return w.String(), nil
}

// resolveEnd picks the event end time for a non-all-day event. Candidate
// order: the explicit end, the provider-echoed end from metadata, start plus
// metadata duration, start plus the 60-minute default. A candidate only
// wins if it lies strictly after start.
func resolveEnd(start wallTime, rawEnd string, meta models.Metadata) wallTime {
	for _, candidate := range []string{rawEnd, meta.String(models.MetaProviderEndTime)} {
		if candidate == "" {
			continue
		}
		end, err := parseDateTime(candidate)
		if err != nil {
			continue
		}
		if end.after(start) {
			return end
		}
	}
	if minutes := meta.Int(models.MetaDurationMinutes); minutes > 0 {
		return start.add(time.Duration(minutes) * time.Minute)
	}
	return start.add(defaultEventDuration)
}

// resolveAllDayEnd computes the exclusive end date of an all-day event: the
// day after the last day. The end input, when usable, names the last
// (inclusive) day of the event.
func resolveAllDayEnd(start wallTime, rawEnd string) wallTime {
	day := start.startOfDay()
	if rawEnd != "" {
		if end, err := parseDateTime(rawEnd); err == nil {
			if endDay := end.startOfDay(); endDay.after(day) {
				day = endDay
			}
		}
	}
	return day.add(24 * time.Hour)
}
