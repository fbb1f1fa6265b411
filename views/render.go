package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"math"
	"strconv"
	"strings"
	"time"

	"asterias/models"
	"asterias/services/i18n"

	"github.com/yosssi/gohtml"
)

//go:embed templates static
var files embed.FS

var (
	SitePages  = []string{"home", "rooms", "room", "gallery", "offers", "contact", "about", "book", "not_found"}
	AdminPages = []string{"login", "dashboard", "bookings", "booking", "rooms", "offers", "guests"}
	MailBodies = []string{"booking_confirmation", "contact_inquiry"}
)

// Static returns the embedded /static asset tree.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Alternate is one hreflang link for a page.
type Alternate struct {
	Lang string
	URL  string
}

// Page is the data every layout receives.
type Page struct {
	Loc         i18n.Localizer
	Lang        string
	Locales     []string
	Path        string
	Title       string
	Description string
	Canonical   string
	Alternates  []Alternate
	Year        int
	User        *models.AdminUser
	Flash       string
	Data        any
}

// MailData is passed to e-mail body templates.
type MailData struct {
	Locale  string
	Loc     i18n.Localizer
	Payload any
}

// Renderer executes the embedded site, admin and mail templates.
type Renderer struct {
	site          map[string]*template.Template
	admin         map[string]*template.Template
	mail          map[string]*template.Template
	defaultLocale string
	pretty        bool
}

// New parses every template up front. With pretty set, HTML output is
// re-indented, which is only useful while developing templates.
func New(defaultLocale string, pretty bool) (*Renderer, error) {
	r := &Renderer{
		site:          make(map[string]*template.Template),
		admin:         make(map[string]*template.Template),
		mail:          make(map[string]*template.Template),
		defaultLocale: defaultLocale,
		pretty:        pretty,
	}
	funcs := r.funcs()
	for _, name := range SitePages {
		t, err := template.New(name).Funcs(funcs).ParseFS(files, "templates/site/layout.html", "templates/site/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("views: parsing site/%s: %w", name, err)
		}
		r.site[name] = t
	}
	for _, name := range AdminPages {
		t, err := template.New(name).Funcs(funcs).ParseFS(files, "templates/admin/layout.html", "templates/admin/partials.html", "templates/admin/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("views: parsing admin/%s: %w", name, err)
		}
		r.admin[name] = t
	}
	for _, name := range MailBodies {
		t, err := template.New(name).Funcs(funcs).ParseFS(files, "templates/mail/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("views: parsing mail/%s: %w", name, err)
		}
		r.mail[name] = t
	}
	return r, nil
}

// Site renders a public page.
func (r *Renderer) Site(w io.Writer, name string, p Page) error {
	return r.execute(w, r.site, name, "layout", p)
}

// Admin renders a back-office page.
func (r *Renderer) Admin(w io.Writer, name string, p Page) error {
	return r.execute(w, r.admin, name, "layout", p)
}

// Mail renders an e-mail body to a string.
func (r *Renderer) Mail(name string, data MailData) (string, error) {
	var buf bytes.Buffer
	if err := r.execute(&buf, r.mail, name, "body", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Renderer) execute(w io.Writer, set map[string]*template.Template, name, root string, data any) error {
	t, ok := set[name]
	if !ok {
		return fmt.Errorf("views: unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, root, data); err != nil {
		return err
	}
	out := buf.Bytes()
	if r.pretty {
		out = gohtml.FormatBytes(out)
	}
	_, err := w.Write(out)
	return err
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"localePath": LocalePath,
		"upper":      strings.ToUpper,
		"localized": func(t models.LocalizedText, lang string) string {
			return t.In(lang, r.defaultLocale)
		},
		"money":   FormatMoney,
		"date":    FormatDate,
		"percent": func(f float64) string { return strconv.FormatFloat(math.Round(f*100), 'f', 0, 64) + "%" },
	}
}

// LocalePath prefixes a locale-less path with the locale segment.
func LocalePath(locale, path string) string {
	if path == "" || path == "/" {
		return "/" + locale
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "/" + locale + path
}

// FormatMoney renders amount in the locale's convention: "€120" in English,
// "120 €" with a decimal comma elsewhere. Whole amounts drop the decimals.
func FormatMoney(amount float64, currency, lang string) string {
	symbol := strings.ToUpper(currency)
	switch symbol {
	case "EUR", "":
		symbol = "€"
	case "USD":
		symbol = "$"
	case "GBP":
		symbol = "£"
	}
	var num string
	if amount == math.Trunc(amount) {
		num = strconv.FormatFloat(amount, 'f', 0, 64)
	} else {
		num = strconv.FormatFloat(amount, 'f', 2, 64)
	}
	if lang == "en" {
		return symbol + num
	}
	return strings.Replace(num, ".", ",", 1) + " " + symbol
}

var dateLayouts = map[string]string{
	"en": "2 Jan 2006",
	"el": "02/01/2006",
	"de": "02.01.2006",
}

// FormatDate reformats a YYYY-MM-DD date for display. Unparseable input is
// returned unchanged.
func FormatDate(s, lang string) string {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return s
	}
	layout, ok := dateLayouts[lang]
	if !ok {
		layout = dateLayouts["en"]
	}
	return t.Format(layout)
}
