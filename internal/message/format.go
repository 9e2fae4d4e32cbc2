// Package message normalizes heterogeneous inbound order payloads into a
// rendered, locale-aware notification text. Formatting is total: any
// input, including garbage, produces a printable message with the
// locale's placeholders where data is missing.
package message

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Envelope splits a raw webhook body into the integration ID stamped on
// it and the order object to format. Production traffic arrives as
// {authorizedAppId, data: "<json>"} with the order JSON-encoded inside
// data; older integrations post the order fields at top level. A data
// field that fails to parse falls back to the envelope itself.
func Envelope(payload []byte) (integrationID string, order map[string]any) {
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", nil
	}

	integrationID, _ = body["authorizedAppId"].(string)

	order = body
	if data, ok := body["data"].(string); ok {
		var inner map[string]any
		if err := json.Unmarshal([]byte(data), &inner); err == nil {
			order = inner
		}
	}
	return integrationID, order
}

// Total resolves the order total through the same fallback chain the
// rendered message uses, so the fan-out threshold check and the message
// can never disagree.
func Total(order map[string]any) float64 {
	if order == nil {
		return 0
	}
	return resolveNumber(order, totalPaths, 0)
}

// OrderNumber resolves the order number for logging and the delivery log.
func OrderNumber(order map[string]any) string {
	if order == nil {
		return "N/A"
	}
	return resolveString(order, orderNumberPaths, "N/A")
}

// Format renders the localized notification text for one order object.
func Format(order map[string]any, lang string) string {
	msg := Locale(lang)

	if order == nil {
		return fmt.Sprintf("🛒 %s!\n\n⚠️ %s", msg.NewOrder, msg.OrderDataError)
	}

	orderNumber := resolveString(order, orderNumberPaths, msg.Unknown)
	customerName := resolveString(order, customerNamePaths, msg.Unknown)
	customerPhone := normalizePhone(resolveString(order, customerPhonePaths, msg.Unknown))
	total := resolveNumber(order, totalPaths, 0)
	currency := resolveString(order, currencyPaths, "TRY")

	var items []any
	if v, ok := resolve(order, itemsPaths); ok {
		items, _ = v.([]any)
	}

	orderedAt := ""
	if v, ok := resolve(order, orderedAtPaths); ok {
		orderedAt, _ = stringValue(v)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🛒 *%s!*\n#%s\n\n", msg.NewOrder, orderNumber)
	fmt.Fprintf(&b, "👤 *%s:* %s\n", msg.Customer, customerName)
	fmt.Fprintf(&b, "📱 *%s:* %s\n", msg.Phone, customerPhone)
	fmt.Fprintf(&b, "💰 *%s:* %s %s\n\n", msg.Total, formatAmount(total), currency)
	fmt.Fprintf(&b, "📦 *%s:*\n%s\n\n", msg.Products, formatItems(items, msg))
	fmt.Fprintf(&b, "📅 *%s:* %s", msg.Date, formatDate(orderedAt, msg))
	return b.String()
}

// normalizePhone rewrites a leading +90 country prefix to the local 0
// form and strips internal whitespace. Anything else passes through,
// including the locale's unknown placeholder.
func normalizePhone(phone string) string {
	p := strings.Join(strings.Fields(phone), "")
	if strings.HasPrefix(p, "+90") {
		return "0" + p[3:]
	}
	if p == "" {
		return phone
	}
	return p
}

func formatItems(items []any, msg Messages) string {
	if len(items) == 0 {
		return "- " + msg.NoProducts
	}

	lines := make([]string, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			lines = append(lines, "- 1x "+msg.Unknown)
			continue
		}
		qty := resolveNumber(item, itemQtyPaths, 1)
		name := resolveString(item, itemNamePaths, msg.Unknown)
		price := resolveNumber(item, itemPricePaths, 0)
		currency := resolveString(item, itemCurrencyPaths, "TRY")

		line := fmt.Sprintf("- %sx %s", formatAmount(qty), name)
		if price > 0 {
			line += fmt.Sprintf(" (%s %s)", formatAmount(price), currency)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// formatDate renders a payload timestamp as "2006-01-02 15:04". The
// storefront sends RFC3339 strings; some exports carry epoch seconds or
// milliseconds. Anything unparseable renders as the unknown placeholder.
func formatDate(value string, msg Messages) string {
	if value == "" {
		return msg.Unknown
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02 15:04")
		}
	}

	if epoch, err := strconv.ParseFloat(value, 64); err == nil && epoch > 0 {
		sec := int64(epoch)
		if epoch > 1e12 { // milliseconds
			sec = int64(epoch / 1000)
		}
		return time.Unix(sec, 0).UTC().Format("2006-01-02 15:04")
	}

	return msg.Unknown
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
