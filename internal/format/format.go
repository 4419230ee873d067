// Package format holds the display helpers shared by the TrashDash apps.
package format

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var nonDigit = regexp.MustCompile(`\D`)

// PhoneNumber formats a US phone number as (XXX) XXX-XXXX, or
// +1 (XXX) XXX-XXXX for 11-digit numbers with a leading 1. Anything else
// comes back unchanged.
func PhoneNumber(phone string) string {
	cleaned := nonDigit.ReplaceAllString(phone, "")

	if len(cleaned) == 10 {
		return fmt.Sprintf("(%s) %s-%s", cleaned[:3], cleaned[3:6], cleaned[6:])
	}
	if len(cleaned) == 11 && strings.HasPrefix(cleaned, "1") {
		return fmt.Sprintf("+1 (%s) %s-%s", cleaned[1:4], cleaned[4:7], cleaned[7:])
	}
	return phone
}

// Price formats a dollar amount as $1,234.50.
func Price(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	s := fmt.Sprintf("%.2f", amount)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if neg {
		return fmt.Sprintf("-$%s.%s", b.String(), frac)
	}
	return fmt.Sprintf("$%s.%s", b.String(), frac)
}

// Name joins first and last name, tolerating a missing half.
func Name(firstName, lastName string) string {
	return strings.TrimSpace(firstName + " " + lastName)
}

// Initials returns the two-letter initials used for avatar placeholders.
func Initials(firstName, lastName string) string {
	var b strings.Builder
	if firstName != "" {
		b.WriteString(strings.ToUpper(firstName[:1]))
	}
	if lastName != "" {
		b.WriteString(strings.ToUpper(lastName[:1]))
	}
	return b.String()
}

// Duration renders minutes as "45 min", "2h" or "1h 30m".
func Duration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	rest := minutes % 60
	if rest == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, rest)
}

// RelativeTime renders how long ago t was, in the coarsest sensible unit.
func RelativeTime(t time.Time, now time.Time) string {
	d := now.Sub(t)

	if d < time.Minute {
		return "Just now"
	}
	if d < time.Hour {
		return plural(int(d.Minutes()), "minute")
	}
	if d < 24*time.Hour {
		return plural(int(d.Hours()), "hour")
	}

	days := int(d.Hours() / 24)
	if days < 7 {
		return plural(days, "day")
	}
	if days < 28 {
		return plural(days/7, "week")
	}
	if days < 365 {
		return plural(days/30, "month")
	}
	return plural(days/365, "year")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// Truncate shortens text to maxLen runes, ending with "..." when cut.
func Truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// Label turns a snake_case enum value into a display label
// ("in_progress" -> "In Progress").
func Label(value string) string {
	words := strings.Split(value, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
