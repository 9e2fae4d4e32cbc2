package message

import "strconv"

// Field resolution is data-driven: each canonical field has an ordered
// list of accessor paths into the decoded payload and the first path
// that resolves wins. The alternates cover the shapes seen in real
// traffic: the storefront's own camelCase payloads, snake_case exports
// and a few legacy flat forms.
var (
	orderNumberPaths = [][]string{
		{"orderNumber"}, {"order_number"}, {"number"}, {"id"}, {"order_id"},
	}
	customerNamePaths = [][]string{
		{"customer", "name"}, {"customer", "fullName"}, {"customer", "full_name"}, {"customerName"},
	}
	customerPhonePaths = [][]string{
		{"customer", "phone"}, {"customer", "phoneNumber"}, {"customer", "phone_number"}, {"phone"},
	}
	totalPaths = [][]string{
		{"totalFinalPrice"}, {"total"}, {"total_price"}, {"totalPrice"}, {"grand_total"},
	}
	currencyPaths = [][]string{
		{"currency"}, {"currency_code"}, {"currencyCode"},
	}
	itemsPaths = [][]string{
		{"orderLineItems"}, {"items"}, {"line_items"}, {"products"},
	}
	orderedAtPaths = [][]string{
		{"created_at"}, {"createdAt"}, {"orderedAt"}, {"date"}, {"order_date"},
	}

	itemQtyPaths = [][]string{
		{"qty"}, {"quantity"},
	}
	itemNamePaths = [][]string{
		{"name"}, {"product_name"}, {"title"}, {"variant", "name"},
	}
	itemPricePaths = [][]string{
		{"finalPrice"}, {"price"}, {"unit_price"},
	}
	itemCurrencyPaths = [][]string{
		{"currencyCode"}, {"currency_code"}, {"currency"},
	}
)

// resolve walks the ordered paths over the payload and returns the first
// value that exists and is non-nil.
func resolve(obj map[string]any, paths [][]string) (any, bool) {
	for _, path := range paths {
		cur := any(obj)
		ok := true
		for _, key := range path {
			m, isMap := cur.(map[string]any)
			if !isMap {
				ok = false
				break
			}
			cur, ok = m[key]
			if !ok || cur == nil {
				ok = false
				break
			}
		}
		if ok {
			return cur, true
		}
	}
	return nil, false
}

// stringValue renders any scalar payload value as text. Numeric order
// numbers are common, so numbers format without a decimal tail.
func stringValue(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		if s == "" {
			return "", false
		}
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case bool:
		return strconv.FormatBool(s), true
	}
	return "", false
}

// numberValue coerces a payload value to a float. Storefront exports
// carry totals both as JSON numbers and as numeric strings.
func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func resolveString(obj map[string]any, paths [][]string, fallback string) string {
	if v, ok := resolve(obj, paths); ok {
		if s, ok := stringValue(v); ok {
			return s
		}
	}
	return fallback
}

func resolveNumber(obj map[string]any, paths [][]string, fallback float64) float64 {
	if v, ok := resolve(obj, paths); ok {
		if f, ok := numberValue(v); ok {
			return f
		}
	}
	return fallback
}
