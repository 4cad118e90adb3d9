package listings

import (
	"testing"
	"time"

	"techtrust-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func TestFormatPostedAt(t *testing.T) {
	at := time.Date(2026, 10, 14, 9, 35, 0, 0, time.UTC)
	assert.Equal(t, "14th October 2026 at 3:05 pm", FormatPostedAt(at, ist))

	assert.Equal(t, "1st January 2026 at 12:00 am", FormatPostedAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.UTC))
	assert.Equal(t, "22nd March 2026 at 12:07 pm", FormatPostedAt(time.Date(2026, 3, 22, 12, 7, 0, 0, time.UTC), nil))
}

func TestOrdinalSuffix(t *testing.T) {
	cases := map[int]string{1: "st", 2: "nd", 3: "rd", 4: "th", 11: "th", 12: "th", 13: "th", 21: "st", 22: "nd", 23: "rd", 30: "th", 31: "st"}
	for day, want := range cases {
		assert.Equal(t, want, ordinalSuffix(day), "day %d", day)
	}
}

func TestRelativeAge(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "0 minutes ago", RelativeAge(now, now, nil))
	assert.Equal(t, "1 minute ago", RelativeAge(now.Add(-time.Minute), now, nil))
	assert.Equal(t, "5 minutes ago", RelativeAge(now.Add(-5*time.Minute), now, nil))
	assert.Equal(t, "1 hour ago", RelativeAge(now.Add(-61*time.Minute), now, nil))
	assert.Equal(t, "3 days ago", RelativeAge(now.Add(-72*time.Hour), now, nil))
	assert.Equal(t, "2026-08-01", RelativeAge(time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC), now, time.UTC))
}

func TestWhatsAppLink(t *testing.T) {
	sell := domain.Listing{Type: domain.ListingTypeSell, Title: "Laptop", ContactName: "Asha", ContactNumber: "+91 98765-43210"}
	assert.Equal(t,
		"https://wa.me/919876543210?text=Hi%20Asha%2C%20I'm%20interested%20in%20buying%20%22Laptop%22.%20Is%20it%20still%20available%3F",
		WhatsAppLink(sell))

	buy := domain.Listing{Type: domain.ListingTypeBuy, Title: "C++ book", ContactName: "Ravi", ContactNumber: "9123456789"}
	assert.Equal(t, `Hi Ravi, I'm interested in "C++ book". Is it still available?`, WhatsAppMessage(buy))
	assert.Contains(t, WhatsAppLink(buy), "C%2B%2B%20book")
}
