package message

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope(t *testing.T) {
	t.Run("enveloped payload with JSON-encoded data", func(t *testing.T) {
		payload := []byte(`{"authorizedAppId":"app-123","data":"{\"orderNumber\":\"1001\",\"totalFinalPrice\":200}"}`)

		id, order := Envelope(payload)

		require.Equal(t, "app-123", id)
		require.NotNil(t, order)
		assert.Equal(t, "1001", order["orderNumber"])
		assert.EqualValues(t, 200, order["totalFinalPrice"])
	})

	t.Run("malformed data falls back to the envelope itself", func(t *testing.T) {
		payload := []byte(`{"authorizedAppId":"app-123","data":"{not json","orderNumber":"7"}`)

		id, order := Envelope(payload)

		require.Equal(t, "app-123", id)
		require.NotNil(t, order)
		assert.Equal(t, "7", order["orderNumber"])
	})

	t.Run("flat payload without envelope", func(t *testing.T) {
		payload := []byte(`{"order_number":"42","total":10}`)

		id, order := Envelope(payload)

		assert.Empty(t, id)
		require.NotNil(t, order)
		assert.Equal(t, "42", order["order_number"])
	})

	t.Run("unparseable body", func(t *testing.T) {
		id, order := Envelope([]byte("not json at all"))

		assert.Empty(t, id)
		assert.Nil(t, order)
	})
}

func TestFormatTotality(t *testing.T) {
	msg := Locale("tr")

	cases := []struct {
		name  string
		order map[string]any
	}{
		{"nil order", nil},
		{"empty object", map[string]any{}},
		{"null-ish fields", map[string]any{"orderNumber": nil, "customer": nil, "total": nil}},
		{"non-array items", map[string]any{"items": "oops"}},
		{"non-map item entries", map[string]any{"items": []any{"oops", 42}}},
		{"non-map customer", map[string]any{"customer": "Ayşe"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Format(tc.order, "tr")
			require.NotEmpty(t, out)
			if tc.order != nil {
				assert.Contains(t, out, msg.Unknown)
			}
		})
	}
}

func TestFormatFieldResolution(t *testing.T) {
	t.Run("first matching alternate wins", func(t *testing.T) {
		order := map[string]any{
			"totalFinalPrice": 200,
			"total":           999,
			"currencyCode":    "TRY",
			"customer":        map[string]any{"fullName": "Ayşe"},
			"orderNumber":     "1001",
			"orderLineItems": []any{
				map[string]any{
					"quantity":     1,
					"variant":      map[string]any{"name": "Jacket"},
					"finalPrice":   200,
					"currencyCode": "TRY",
				},
			},
		}

		out := Format(order, "tr")

		assert.Contains(t, out, "#1001")
		assert.Contains(t, out, "Ayşe")
		assert.Contains(t, out, "200 TRY")
		assert.Contains(t, out, "- 1x Jacket (200 TRY)")
		assert.NotContains(t, out, "999")
	})

	t.Run("snake_case export shape", func(t *testing.T) {
		order := map[string]any{
			"order_number": "55",
			"total_price":  "149.90",
			"currency":     "TRY",
			"line_items": []any{
				map[string]any{"qty": 2, "product_name": "Mug", "price": 74.95},
			},
			"created_at": "2024-03-01T10:30:00Z",
		}

		out := Format(order, "tr")

		assert.Contains(t, out, "#55")
		assert.Contains(t, out, "149.9 TRY")
		assert.Contains(t, out, "- 2x Mug (74.95 TRY)")
		assert.Contains(t, out, "2024-03-01 10:30")
	})

	t.Run("numeric order number renders without decimals", func(t *testing.T) {
		out := Format(map[string]any{"id": float64(12345)}, "tr")
		assert.Contains(t, out, "#12345")
	})

	t.Run("empty item list renders the placeholder", func(t *testing.T) {
		out := Format(map[string]any{"items": []any{}}, "tr")
		assert.Contains(t, out, Locale("tr").NoProducts)
	})
}

func TestPhoneNormalization(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"+90 555 123 4567", "05551234567"},
		{"+905551234567", "05551234567"},
		{"0555 123 4567", "05551234567"},
		{"05551234567", "05551234567"},
	}
	for _, tc := range cases {
		order := map[string]any{"customer": map[string]any{"phone": tc.in}}
		out := Format(order, "tr")
		assert.Contains(t, out, tc.want, "input %q", tc.in)
	}

	t.Run("missing phone renders the placeholder", func(t *testing.T) {
		out := Format(map[string]any{}, "tr")
		assert.Contains(t, out, Locale("tr").Unknown)
	})
}

func TestFormatDate(t *testing.T) {
	msg := Locale("tr")

	cases := []struct {
		name, in, want string
	}{
		{"rfc3339", "2024-03-01T10:30:00Z", "2024-03-01 10:30"},
		{"space separated", "2024-03-01 10:30:00", "2024-03-01 10:30"},
		{"date only", "2024-03-01", "2024-03-01 00:00"},
		{"epoch seconds", "1709287800", "2024-03-01 10:10"},
		{"epoch millis", "1709287800000", "2024-03-01 10:10"},
		{"garbage", "next tuesday", msg.Unknown},
		{"empty", "", msg.Unknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatDate(tc.in, msg))
		})
	}
}

func TestLocaleFallback(t *testing.T) {
	assert.Equal(t, Locale("tr"), Locale("de"))
	assert.Equal(t, Locale("tr"), Locale(""))
	assert.NotEqual(t, Locale("tr").NewOrder, Locale("en").NewOrder)

	out := Format(map[string]any{}, "en")
	assert.True(t, strings.Contains(out, "New Order"))
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 0.0, Total(nil))
	assert.Equal(t, 0.0, Total(map[string]any{}))
	assert.Equal(t, 200.0, Total(map[string]any{"totalFinalPrice": float64(200)}))
	assert.Equal(t, 149.9, Total(map[string]any{"total_price": "149.90"}))
	assert.Equal(t, 50.0, Total(map[string]any{"grand_total": float64(50)}))
}

func TestOrderNumber(t *testing.T) {
	assert.Equal(t, "N/A", OrderNumber(nil))
	assert.Equal(t, "N/A", OrderNumber(map[string]any{}))
	assert.Equal(t, "1001", OrderNumber(map[string]any{"orderNumber": "1001"}))
	assert.Equal(t, "77", OrderNumber(map[string]any{"id": float64(77)}))
}
