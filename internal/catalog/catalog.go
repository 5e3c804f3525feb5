// Package catalog holds the shop's static reference data (box sizes,
// flavors, delivery cities) and the rules that decide whether a
// shopper's selection can be ordered: region restrictions, flavor
// limits, pricing and the delivery window.
package catalog

import (
	"errors"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/hmweb77/macaroness/internal/model"
)

// Validation errors. Handlers translate all of them into 422 responses.
var (
	ErrUnknownCity      = errors.New("unknown city")
	ErrUnknownBox       = errors.New("unknown box size")
	ErrUnknownFlavor    = errors.New("unknown flavor")
	ErrRegionRestricted = errors.New("box size not available in this city")
	ErrTooManyFlavors   = errors.New("too many flavors for this box")
	ErrFlavorsRequired  = errors.New("at least one flavor is required")
	ErrFixedAssortment  = errors.New("this box has a fixed assortment")
	ErrDateTooEarly     = errors.New("delivery date is too early")
	ErrClosedOnSunday   = errors.New("no deliveries on sunday")
	ErrInvalidPhone     = errors.New("invalid phone number")
)

// DefaultOpeningDate is the first day orders are accepted for.
var DefaultOpeningDate = time.Date(2025, time.November, 3, 0, 0, 0, 0, time.UTC)

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	boxes   []model.BoxSize
	flavors []model.Flavor
	cities  []model.City

	boxByPieces  map[int]model.BoxSize
	flavorByName map[string]model.Flavor
	cityByName   map[string]model.City

	opening time.Time
	loc     *time.Location
	perm    func(n int) []int
}

// New builds the shop catalog. Dates are computed in loc (UTC when nil)
// and no delivery is scheduled before the calendar day of opening.
func New(opening time.Time, loc *time.Location) *Catalog {
	if loc == nil {
		loc = time.UTC
	}
	c := &Catalog{
		boxes:        defaultBoxes,
		flavors:      defaultFlavors,
		cities:       defaultCities,
		boxByPieces:  make(map[int]model.BoxSize, len(defaultBoxes)),
		flavorByName: make(map[string]model.Flavor, len(defaultFlavors)),
		cityByName:   make(map[string]model.City, len(defaultCities)),
		opening:      time.Date(opening.Year(), opening.Month(), opening.Day(), 0, 0, 0, 0, loc),
		loc:          loc,
		perm:         rand.Perm,
	}
	for _, b := range c.boxes {
		c.boxByPieces[b.Pieces] = b
	}
	for _, f := range c.flavors {
		c.flavorByName[foldName(f.Name)] = f
	}
	for _, ci := range c.cities {
		c.cityByName[foldName(ci.Name)] = ci
	}
	return c
}

// Location returns the time zone delivery dates are expressed in.
func (c *Catalog) Location() *time.Location { return c.loc }

func (c *Catalog) Boxes() []model.BoxSize {
	return append([]model.BoxSize(nil), c.boxes...)
}

func (c *Catalog) Flavors() []model.Flavor {
	return append([]model.Flavor(nil), c.flavors...)
}

func (c *Catalog) Cities() []model.City {
	return append([]model.City(nil), c.cities...)
}

// BoxSize looks up a box by its piece count.
func (c *Catalog) BoxSize(pieces int) (model.BoxSize, bool) {
	b, ok := c.boxByPieces[pieces]
	return b, ok
}

// City looks up a city by its French name, ignoring case and accents
// ("sale" finds Salé).
func (c *Catalog) City(name string) (model.City, bool) {
	ci, ok := c.cityByName[foldName(name)]
	return ci, ok
}

// Flavor looks up a flavor by its French name, ignoring case and accents.
func (c *Catalog) Flavor(name string) (model.Flavor, bool) {
	f, ok := c.flavorByName[foldName(name)]
	return f, ok
}

// foldName reduces a name to its lookup key: trimmed, lower case, with
// combining marks stripped.
func foldName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(name))
	if err != nil {
		folded = strings.TrimSpace(name)
	}
	return strings.ToLower(folded)
}

// BoxAllowedIn reports whether box can be ordered for delivery to city.
func BoxAllowedIn(box model.BoxSize, city model.City) bool {
	return !box.RegionRestricted || city.InRegion
}

// BoxesFor lists the boxes orderable from city.
func (c *Catalog) BoxesFor(city model.City) []model.BoxSize {
	out := make([]model.BoxSize, 0, len(c.boxes))
	for _, b := range c.boxes {
		if BoxAllowedIn(b, city) {
			out = append(out, b)
		}
	}
	return out
}

// Quote is the price breakdown of a box delivered to a city, in MAD.
type Quote struct {
	BoxPrice      int `json:"box_price"`
	DeliveryPrice int `json:"delivery_price"`
	Total         int `json:"total"`
}

// QuoteFor prices box delivered to city.
func QuoteFor(box model.BoxSize, city model.City) Quote {
	return Quote{
		BoxPrice:      box.Price,
		DeliveryPrice: city.DeliveryPrice,
		Total:         box.Price + city.DeliveryPrice,
	}
}

// Selection is what the shopper picked in the order wizard.
type Selection struct {
	City       string
	BoxSize    int
	Flavors    []string
	SurpriseMe bool
}

// Resolved is a validated selection with catalog records attached.
type Resolved struct {
	City    model.City
	Box     model.BoxSize
	Flavors model.FlavorSelection
	Quote   Quote
}

// Resolve validates sel against the catalog. Region-restricted boxes are
// rejected for cities outside the region before any capacity is touched.
// For surprise boxes the flavors are picked here.
func (c *Catalog) Resolve(sel Selection) (Resolved, error) {
	city, ok := c.City(sel.City)
	if !ok {
		return Resolved{}, ErrUnknownCity
	}
	box, ok := c.BoxSize(sel.BoxSize)
	if !ok {
		return Resolved{}, ErrUnknownBox
	}
	if !BoxAllowedIn(box, city) {
		return Resolved{}, ErrRegionRestricted
	}

	res := Resolved{City: city, Box: box, Quote: QuoteFor(box, city)}
	if box.MaxFlavors == 0 {
		if len(sel.Flavors) > 0 {
			return Resolved{}, ErrFixedAssortment
		}
		res.Flavors = model.FlavorSelection{Flavors: []string{}, ExcludedFlavors: []string{}}
		return res, nil
	}
	if sel.SurpriseMe {
		res.Flavors = model.FlavorSelection{
			Flavors:         c.SurpriseFlavors(box.MaxFlavors),
			ExcludedFlavors: []string{},
			SurpriseMe:      true,
		}
		return res, nil
	}

	picked := make([]string, 0, len(sel.Flavors))
	seen := make(map[string]struct{}, len(sel.Flavors))
	for _, name := range sel.Flavors {
		f, ok := c.Flavor(name)
		if !ok {
			return Resolved{}, ErrUnknownFlavor
		}
		if _, dup := seen[f.Name]; dup {
			continue
		}
		seen[f.Name] = struct{}{}
		picked = append(picked, f.Name)
	}
	if len(picked) == 0 {
		return Resolved{}, ErrFlavorsRequired
	}
	if len(picked) > box.MaxFlavors {
		return Resolved{}, ErrTooManyFlavors
	}
	res.Flavors = model.FlavorSelection{
		Flavors:         picked,
		ExcludedFlavors: c.ExcludedFlavors(picked),
	}
	return res, nil
}

// SurpriseFlavors picks n distinct flavors at random.
func (c *Catalog) SurpriseFlavors(n int) []string {
	if n > len(c.flavors) {
		n = len(c.flavors)
	}
	if n <= 0 {
		return []string{}
	}
	out := make([]string, 0, n)
	for _, i := range c.perm(len(c.flavors))[:n] {
		out = append(out, c.flavors[i].Name)
	}
	return out
}

// ExcludedFlavors returns the catalog flavors missing from included, in
// catalog order.
func (c *Catalog) ExcludedFlavors(included []string) []string {
	in := make(map[string]struct{}, len(included))
	for _, n := range included {
		in[n] = struct{}{}
	}
	out := make([]string, 0, len(c.flavors))
	for _, f := range c.flavors {
		if _, ok := in[f.Name]; !ok {
			out = append(out, f.Name)
		}
	}
	return out
}

// EarliestDeliveryDate returns the first day a box ordered at now can be
// delivered to city: the delivery delay rounded up to whole days, never
// before the opening date.
func (c *Catalog) EarliestDeliveryDate(now time.Time, city model.City) time.Time {
	days := (city.DeliveryHours + 23) / 24
	earliest := startOfDay(now, c.loc).AddDate(0, 0, days)
	if earliest.Before(c.opening) {
		return c.opening
	}
	return earliest
}

// ValidateDeliveryDate checks date against the delivery window of city.
func (c *Catalog) ValidateDeliveryDate(now time.Time, city model.City, date time.Time) error {
	day := startOfDay(date, c.loc)
	if day.Before(c.EarliestDeliveryDate(now, city)) {
		return ErrDateTooEarly
	}
	if day.Weekday() == time.Sunday {
		return ErrClosedOnSunday
	}
	return nil
}

// MaxPhoneLen bounds a normalized phone number, leading '+' included.
const MaxPhoneLen = 20

// NormalizePhone strips formatting characters from a phone number and
// rejects numbers shorter than ten or longer than MaxPhoneLen characters.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch r {
		case ' ', '-', '(', ')', '.':
			continue
		}
		b.WriteRune(r)
	}
	p := b.String()
	if len(p) < 10 || len(p) > MaxPhoneLen {
		return "", ErrInvalidPhone
	}
	for i, r := range p {
		if r == '+' && i == 0 {
			continue
		}
		if r < '0' || r > '9' {
			return "", ErrInvalidPhone
		}
	}
	return p, nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
