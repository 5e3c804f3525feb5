package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/hmweb77/macaroness/internal/model"
)

var frenchWeekdays = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}

var frenchMonths = [...]string{"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre"}

// frenchDate renders a date key as "vendredi 14 novembre 2025".
func frenchDate(dateKey string) string {
	d, err := model.ParseDateKey(dateKey, time.UTC)
	if err != nil {
		return "Date non disponible"
	}
	return fmt.Sprintf("%s %d %s %d", frenchWeekdays[d.Weekday()], d.Day(), frenchMonths[d.Month()-1], d.Year())
}

func flavorSummary(ev OrderPlacedEvent) string {
	switch {
	case ev.SurpriseMe:
		return "✨ Surprise! (Sélection du chef)"
	case len(ev.Flavors) == 0:
		return "• Assortiment de la maison"
	case len(ev.ExcludedFlavors) > 0:
		return fmt.Sprintf("• Incluses: %s\n• Exclues: %s",
			strings.Join(ev.Flavors, ", "), strings.Join(ev.ExcludedFlavors, ", "))
	}
	return fmt.Sprintf("• Toutes les saveurs (%d saveurs)", len(ev.Flavors))
}

// markdownEscaper escapes the characters legacy Telegram Markdown treats
// as entity delimiters.
var markdownEscaper = strings.NewReplacer(`_`, `\_`, `*`, `\*`, "`", "\\`", `[`, `\[`)

// escapeMarkdown makes shopper text safe outside of an entity.
func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }

// FormatSummary renders the operator message for a placed order in
// French, using Telegram Markdown. Times are shown in loc.
func FormatSummary(ev OrderPlacedEvent, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	phone := ev.CustomerPhone
	if phone != "" && !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	delay := "48h"
	if ev.DeliveryHours == 24 {
		delay = "24h"
	}
	placed := ev.PlacedAt
	if t, err := time.Parse(time.RFC3339, ev.PlacedAt); err == nil {
		placed = t.In(loc).Format("02/01/2006 15:04")
	}

	var b strings.Builder
	b.WriteString("🎉 *NOUVELLE COMMANDE MACARONESS*\n\n")

	b.WriteString("📦 *Détails de la commande:*\n")
	fmt.Fprintf(&b, "- Numéro: `#%s`\n", ev.OrderNumber)
	fmt.Fprintf(&b, "- Boîte: %d pièces\n", ev.BoxSize)
	fmt.Fprintf(&b, "- Prix boîte: %d MAD\n", ev.BoxPrice)
	fmt.Fprintf(&b, "- Livraison: %d MAD\n", ev.DeliveryPrice)
	fmt.Fprintf(&b, "- *TOTAL: %d MAD*\n\n", ev.TotalPrice)

	b.WriteString("👤 *Informations Client:*\n")
	fmt.Fprintf(&b, "- Nom: %s\n", escapeMarkdown(ev.CustomerName))
	fmt.Fprintf(&b, "- Téléphone: %s\n", escapeMarkdown(phone))
	if ev.Address != "" {
		fmt.Fprintf(&b, "- Adresse: %s\n", escapeMarkdown(ev.Address))
	}
	if ev.Notes != "" {
		fmt.Fprintf(&b, "- Notes: %s\n", escapeMarkdown(ev.Notes))
	}
	b.WriteString("\n")

	b.WriteString("📍 *Détails Livraison:*\n")
	fmt.Fprintf(&b, "- Ville: %s\n", ev.City)
	fmt.Fprintf(&b, "- Date: %s\n", frenchDate(ev.DateKey))
	fmt.Fprintf(&b, "- Délai: %s\n\n", delay)

	b.WriteString("🍰 *Saveurs:*\n")
	b.WriteString(flavorSummary(ev))
	b.WriteString("\n\n━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "⏰ Commande passée: %s", placed)
	return b.String()
}

// LogLine renders the single-line entry appended to logs/orders.log.
func LogLine(ev OrderPlacedEvent) string {
	return fmt.Sprintf("[%s] Order placed | order_id=%s | number=%s | date=%s | box=%d | city=%q | customer=%q | phone=%s | total=%d MAD | remaining=%d\n",
		ev.PlacedAt, ev.OrderID, ev.OrderNumber, ev.DateKey, ev.BoxSize, ev.City, ev.CustomerName, ev.CustomerPhone, ev.TotalPrice, ev.RemainingCapacity)
}
