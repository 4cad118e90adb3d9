package listings

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"techtrust-backend/internal/domain"
)

// FormatPostedAt renders t like "14th October 2026 at 3:05 pm" in loc.
func FormatPostedAt(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	day := t.Day()
	return fmt.Sprintf("%d%s %s %d at %s", day, ordinalSuffix(day), t.Month(), t.Year(), t.Format("3:04 pm"))
}

func ordinalSuffix(day int) string {
	if day > 3 && day < 21 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

// RelativeAge renders how long ago t was: minutes under an hour, hours under a day,
// days under 30 days, otherwise the calendar date in loc.
func RelativeAge(t, now time.Time, loc *time.Location) string {
	d := now.Sub(t)
	mins := int(d / time.Minute)
	hours := int(d / time.Hour)
	days := int(d / (24 * time.Hour))
	switch {
	case mins < 60:
		return plural(mins, "minute") + " ago"
	case hours < 24:
		return plural(hours, "hour") + " ago"
	case days < 30:
		return plural(days, "day") + " ago"
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("2006-01-02")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// uriComponent escapes the characters encodeURIComponent escapes, so links match
// what browsers generate.
var uriComponent = strings.NewReplacer("+", "%20", "%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*")

// WhatsAppMessage is the prefilled contact message for l.
func WhatsAppMessage(l domain.Listing) string {
	if l.Type == domain.ListingTypeBuy {
		return fmt.Sprintf("Hi %s, I'm interested in \"%s\". Is it still available?", l.ContactName, l.Title)
	}
	return fmt.Sprintf("Hi %s, I'm interested in buying \"%s\". Is it still available?", l.ContactName, l.Title)
}

// WhatsAppLink is the wa.me deep link for contacting the poster of l.
func WhatsAppLink(l domain.Listing) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s",
		domain.DigitsOnly(l.ContactNumber), uriComponent.Replace(url.QueryEscape(WhatsAppMessage(l))))
}
