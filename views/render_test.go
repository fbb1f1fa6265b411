package views

import (
	"bytes"
	"io/fs"
	"strings"
	"testing"

	"asterias/models"
	"asterias/services/i18n"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMeta(t *testing.T) SiteMeta {
	t.Helper()
	b, err := i18n.LoadBundle("en")
	require.NoError(t, err)
	return SiteMeta{BaseURL: "https://asteriashomes.gr/", Locales: []string{"en", "el", "de"}, Bundle: b}
}

func TestRenderSitePages(t *testing.T) {
	r, err := New("en", false)
	require.NoError(t, err)
	meta := testMeta(t)

	room := models.Room{
		ID:        "r1",
		Slug:      "sea-view-studio",
		Name:      models.LocalizedText{"en": "Sea View Studio", "el": "Στούντιο με θέα"},
		Capacity:  3,
		BasePrice: 85,
		Images:    []string{"https://img.example/1.jpg"},
	}
	data := map[string]any{
		"Rooms":  []models.Room{room},
		"Room":   room,
		"Offers": []models.Offer{{ID: "o1", Title: models.LocalizedText{"en": "Early bird"}, DiscountPercent: 10, ValidFrom: "2026-05-01", ValidTo: "2026-06-30"}},
		"Images": []models.GalleryImage{{URL: "https://img.example/2.jpg", Caption: models.LocalizedText{"en": "Garden"}}},
		"PublishableKey": "pk_test",
		"MinNights":      2,
		"RoomID":         "r1",
		"OfferID":        "",
	}
	for _, name := range SitePages {
		var buf bytes.Buffer
		err := r.Site(&buf, name, meta.NewPage("el", "/rooms", "rooms", data))
		require.NoError(t, err, name)
		assert.Contains(t, buf.String(), `<html lang="el">`, name)
	}

	var buf bytes.Buffer
	require.NoError(t, r.Site(&buf, "rooms", meta.NewPage("el", "/rooms", "rooms", data)))
	html := buf.String()
	assert.Contains(t, html, "Στούντιο με θέα")
	assert.Contains(t, html, `href="/el/rooms/sea-view-studio"`)
	assert.Contains(t, html, `hreflang="x-default" href="https://asteriashomes.gr/en/rooms"`)
	assert.Contains(t, html, `rel="canonical" href="https://asteriashomes.gr/el/rooms"`)
	assert.Contains(t, html, "85 €")
}

func TestRenderEscapesBackendContent(t *testing.T) {
	r, err := New("en", false)
	require.NoError(t, err)
	meta := testMeta(t)

	data := map[string]any{"Rooms": []models.Room{{Slug: "x", Name: models.LocalizedText{"en": "<script>alert(1)</script>"}}}}
	var buf bytes.Buffer
	require.NoError(t, r.Site(&buf, "rooms", meta.NewPage("en", "/rooms", "rooms", data)))
	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
}

func TestRenderAdminPages(t *testing.T) {
	r, err := New("en", true)
	require.NoError(t, err)

	booking := models.Booking{ID: "b1", Reference: "AST-1", RoomName: "Studio", CheckIn: "2026-07-01", CheckOut: "2026-07-04", TotalPrice: 300, Currency: "eur", Status: models.BookingConfirmed}
	data := map[string]any{
		"Stats":    models.DashboardStats{TotalBookings: 4, OccupancyRate: 0.625, RecentBookings: []models.Booking{booking}, Currency: "eur"},
		"Bookings": []models.Booking{booking},
		"Booking":  booking,
		"Statuses": []models.BookingStatus{models.BookingPending, models.BookingConfirmed},
		"Status":   models.BookingConfirmed,
		"Rooms":    []models.Room{{ID: "r1", Name: models.LocalizedText{"en": "Studio"}}},
		"Offers":   []models.Offer{{ID: "o1"}},
		"Guests":   []models.Guest{{ID: "g1", FirstName: "Maria"}},
		"Total":    1,
	}
	user := &models.AdminUser{Email: "owner@asteriashomes.gr"}
	for _, name := range AdminPages {
		var buf bytes.Buffer
		p := Page{Title: name, User: user, Data: data}
		if name == "login" {
			p.User = nil
			p.Data = map[string]any{"Next": "/admin/bookings", "Email": ""}
		}
		require.NoError(t, r.Admin(&buf, name, p), name)
	}

	var buf bytes.Buffer
	require.NoError(t, r.Admin(&buf, "dashboard", Page{Title: "Dashboard", User: user, Data: data}))
	assert.Contains(t, buf.String(), "63%")
	assert.Contains(t, buf.String(), "AST-1")
}

func TestRenderMail(t *testing.T) {
	r, err := New("en", false)
	require.NoError(t, err)
	b, err := i18n.LoadBundle("en")
	require.NoError(t, err)

	body, err := r.Mail("booking_confirmation", MailData{
		Locale: "de",
		Loc:    b.For("de"),
		Payload: models.BookingConfirmationPayload{
			Reference: "AST-9",
			Guest:     models.GuestDetails{FirstName: "Jonas"},
			RoomName:  "Studio",
			CheckIn:   "2026-07-01",
			CheckOut:  "2026-07-04",
			Total:     255.5,
			Currency:  "eur",
		},
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Liebe/r Jonas,")
	assert.Contains(t, body, "AST-9")
	assert.Contains(t, body, "01.07.2026")
	assert.Contains(t, body, "255,50 €")

	_, err = r.Mail("missing", MailData{})
	assert.Error(t, err)
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "/en", LocalePath("en", "/"))
	assert.Equal(t, "/de/rooms", LocalePath("de", "rooms"))

	assert.Equal(t, "€120", FormatMoney(120, "eur", "en"))
	assert.Equal(t, "€99.90", FormatMoney(99.9, "EUR", "en"))
	assert.Equal(t, "99,90 €", FormatMoney(99.9, "eur", "el"))
	assert.Equal(t, "$5", FormatMoney(5, "usd", "en"))

	assert.Equal(t, "3 Jul 2026", FormatDate("2026-07-03", "en"))
	assert.Equal(t, "03/07/2026", FormatDate("2026-07-03", "el"))
	assert.Equal(t, "soon", FormatDate("soon", "de"))
}

func TestStaticAssets(t *testing.T) {
	raw, err := fs.ReadFile(Static(), "js/booking.js")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "/api/bookings/checkout"))
}
