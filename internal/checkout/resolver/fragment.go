package resolver

import (
	"net/url"
	"strconv"
	"strings"
)

// Fragment is one piece of checkout identity observed on a request.
// It is one of OrderIDFragment, OrderReferenceFragment or CartIDFragment.
type Fragment interface {
	fragment()
}

type OrderIDFragment int64

type OrderReferenceFragment string

// CartIDFragment names the cart the request is acting on, i.e. the active cart.
type CartIDFragment int64

func (OrderIDFragment) fragment()        {}
func (OrderReferenceFragment) fragment() {}
func (CartIDFragment) fragment()         {}

var (
	orderIDKeys   = []string{"order_id", "id"}
	referenceKeys = []string{"order_reference", "increment_id"}
	cartIDKeys    = []string{"cart_id", "quote_id"}
)

// FromQuery extracts fragments from query or form values.
func FromQuery(v url.Values) []Fragment {
	var out []Fragment
	for _, k := range orderIDKeys {
		if id := ParseID(v.Get(k)); id > 0 {
			out = append(out, OrderIDFragment(id))
			break
		}
	}
	for _, k := range referenceKeys {
		if ref := strings.TrimSpace(v.Get(k)); ref != "" {
			out = append(out, OrderReferenceFragment(ref))
			break
		}
	}
	for _, k := range cartIDKeys {
		if id := ParseID(v.Get(k)); id > 0 {
			out = append(out, CartIDFragment(id))
			break
		}
	}
	return out
}

// FromJSON extracts fragments from a decoded JSON object. The order id may
// also be nested as data.order_id.
func FromJSON(body map[string]any) []Fragment {
	if body == nil {
		return nil
	}
	var out []Fragment

	id := firstID(body, orderIDKeys)
	if id == 0 {
		if data, ok := body["data"].(map[string]any); ok {
			id = firstID(data, []string{"order_id"})
		}
	}
	if id > 0 {
		out = append(out, OrderIDFragment(id))
	}

	for _, k := range referenceKeys {
		if ref, ok := body[k].(string); ok && strings.TrimSpace(ref) != "" {
			out = append(out, OrderReferenceFragment(strings.TrimSpace(ref)))
			break
		}
	}

	if cart := firstID(body, cartIDKeys); cart > 0 {
		out = append(out, CartIDFragment(cart))
	}
	return out
}

// FromCartParam turns a cart path parameter into a fragment.
func FromCartParam(raw string) []Fragment {
	if id := ParseID(raw); id > 0 {
		return []Fragment{CartIDFragment(id)}
	}
	return nil
}

func firstID(m map[string]any, keys []string) int64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			if v > 0 && v == float64(int64(v)) {
				return int64(v)
			}
		case string:
			if id := ParseID(v); id > 0 {
				return id
			}
		}
	}
	return 0
}

// ParseID parses a positive decimal id. Anything else yields 0.
func ParseID(raw string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}
