package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// normalize converts a raw match into the canonical value for its type.
// The reported bool is false when the raw text cannot be normalized.
func normalize(t Type, raw string, now time.Time) (string, bool) {
	switch t {
	case TypeEmail:
		return strings.ToLower(raw), true
	case TypeVIN, TypeVehicleID, TypeLicensePlate, TypeBuilding:
		return strings.ToUpper(strings.ReplaceAll(raw, " ", "")), true
	case TypePerson:
		return titleCase(raw), true
	case TypePhone:
		return normalizePhone(raw)
	case TypeDate:
		return normalizeDate(raw, now)
	case TypeTime:
		return normalizeTime(raw)
	case TypeMaintenanceType, TypeDepartment, TypeRole, TypeLocation:
		return strings.ToLower(strings.TrimSpace(raw)), true
	default:
		return raw, true
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}

func normalizePhone(raw string) (string, bool) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) != 10 {
		return raw, false
	}
	return fmt.Sprintf("(%s) %s-%s", d[0:3], d[3:6], d[6:10]), true
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// normalizeDate resolves absolute and relative dates to ISO form.
func normalizeDate(raw string, now time.Time) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))

	switch lower {
	case "today":
		return now.Format("2006-01-02"), true
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format("2006-01-02"), true
	case "yesterday":
		return now.AddDate(0, 0, -1).Format("2006-01-02"), true
	}

	dayName := lower
	nextWeek := false
	if strings.HasPrefix(dayName, "next ") {
		dayName = strings.TrimPrefix(dayName, "next ")
		nextWeek = true
	} else if strings.HasPrefix(dayName, "this ") {
		dayName = strings.TrimPrefix(dayName, "this ")
	}
	if wd, ok := weekdays[dayName]; ok {
		delta := (int(wd) - int(now.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		if nextWeek && delta < 7 {
			delta += 7
		}
		return now.AddDate(0, 0, delta).Format("2006-01-02"), true
	}

	for _, layout := range []string{"2006-01-02", "1/2/2006", "01/02/2006"} {
		if t, err := time.Parse(layout, lower); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return raw, false
}

// normalizeTime resolves clock values to 24h HH:MM form.
func normalizeTime(raw string) (string, bool) {
	lower := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))

	meridiem := ""
	if strings.HasSuffix(lower, "am") {
		meridiem = "am"
		lower = strings.TrimSuffix(lower, "am")
	} else if strings.HasSuffix(lower, "pm") {
		meridiem = "pm"
		lower = strings.TrimSuffix(lower, "pm")
	}

	hourPart := lower
	minutePart := "00"
	if idx := strings.Index(lower, ":"); idx >= 0 {
		hourPart = lower[:idx]
		minutePart = lower[idx+1:]
	}

	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return raw, false
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute > 59 {
		return raw, false
	}

	switch meridiem {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour != 12 {
			hour += 12
		}
	}
	if hour > 23 {
		return raw, false
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
