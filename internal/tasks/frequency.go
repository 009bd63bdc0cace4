package tasks

import (
	"strings"
	"time"
)

type Frequency string

const (
	OneTime     Frequency = "one-time"
	Daily       Frequency = "daily"
	Weekly      Frequency = "weekly"
	Fortnightly Frequency = "fortnightly"
	Monthly     Frequency = "monthly"
	Quarterly   Frequency = "quarterly"
	Yearly      Frequency = "yearly"

	// Label-only variants. They step monthly and carry no extra placement rule.
	EndOf1stWeek  Frequency = "end-of-1st-week"
	EndOf2ndWeek  Frequency = "end-of-2nd-week"
	EndOf3rdWeek  Frequency = "end-of-3rd-week"
	EndOf4thWeek  Frequency = "end-of-4th-week"
	EndOfLastWeek Frequency = "end-of-last-week"
)

var frequencies = map[string]Frequency{
	"one-time":         OneTime,
	"onetime":          OneTime,
	"once":             OneTime,
	"daily":            Daily,
	"weekly":           Weekly,
	"fortnightly":      Fortnightly,
	"biweekly":         Fortnightly,
	"monthly":          Monthly,
	"quarterly":        Quarterly,
	"yearly":           Yearly,
	"annually":         Yearly,
	"end-of-1st-week":  EndOf1stWeek,
	"end-of-2nd-week":  EndOf2ndWeek,
	"end-of-3rd-week":  EndOf3rdWeek,
	"end-of-4th-week":  EndOf4thWeek,
	"end-of-last-week": EndOfLastWeek,
}

// ParseFrequency accepts the labels used in the delegation form, in any case
// and with spaces or underscores in place of dashes.
func ParseFrequency(s string) (Frequency, bool) {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.NewReplacer(" ", "-", "_", "-").Replace(k)
	f, ok := frequencies[k]
	return f, ok
}

func (f Frequency) Recurring() bool {
	return f != OneTime
}

func (f Frequency) next(t time.Time) time.Time {
	switch f {
	case Daily:
		return t.AddDate(0, 0, 1)
	case Weekly:
		return t.AddDate(0, 0, 7)
	case Fortnightly:
		return t.AddDate(0, 0, 14)
	case Quarterly:
		return t.AddDate(0, 3, 0)
	case Yearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}
