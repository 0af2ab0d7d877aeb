package session

import (
	"strconv"
	"time"
)

// Field names one persisted SessionContext attribute. Values double as
// Redis hash field names.
type Field string

const (
	FieldOrderID        Field = "order_id"
	FieldOrderReference Field = "order_reference"
	FieldCartID         Field = "cart_id"
	FieldSuccessCartID  Field = "success_cart_id"
	FieldSuccessAt      Field = "success_at"
	FieldLockUntil      Field = "lock_until"
	FieldPendingCleanup Field = "pending_cleanup"
)

// Fields lists every persisted field in a stable order.
var Fields = []Field{
	FieldOrderID,
	FieldOrderReference,
	FieldCartID,
	FieldSuccessCartID,
	FieldSuccessAt,
	FieldLockUntil,
	FieldPendingCleanup,
}

// Context is the checkout state of one shopper session. Zero values mean
// "unset". It is owned by the request that loaded it and written back
// field by field, so it must not be shared between sessions.
type Context struct {
	OrderID        int64
	OrderReference string
	CartID         int64
	SuccessCartID  int64
	SuccessAt      time.Time
	LockUntil      time.Time
	PendingCleanup bool
}

// HasOrder reports whether an order id is known.
func (c Context) HasOrder() bool {
	return c.OrderID > 0
}

// Resolved reports whether id and reference are both known.
func (c Context) Resolved() bool {
	return c.OrderID > 0 && c.OrderReference != ""
}

// Empty reports whether no field is set.
func (c Context) Empty() bool {
	return c.Equal(Context{})
}

// Equal compares the persisted form, so timestamps match at millisecond
// precision.
func (c Context) Equal(o Context) bool {
	return len(Diff(c, o)) == 0
}

// Diff returns the fields whose values differ between before and after.
func Diff(before, after Context) []Field {
	var changed []Field
	for _, f := range Fields {
		b, _ := before.encode(f)
		a, _ := after.encode(f)
		if a != b {
			changed = append(changed, f)
		}
	}
	return changed
}

// encode returns the wire value of f and whether it is set.
func (c Context) encode(f Field) (string, bool) {
	switch f {
	case FieldOrderID:
		return encodeInt(c.OrderID)
	case FieldOrderReference:
		return c.OrderReference, c.OrderReference != ""
	case FieldCartID:
		return encodeInt(c.CartID)
	case FieldSuccessCartID:
		return encodeInt(c.SuccessCartID)
	case FieldSuccessAt:
		return encodeTime(c.SuccessAt)
	case FieldLockUntil:
		return encodeTime(c.LockUntil)
	case FieldPendingCleanup:
		if c.PendingCleanup {
			return "1", true
		}
		return "", false
	}
	return "", false
}

// decode sets f from its wire value. Unparsable values leave the field
// at its zero value.
func (c *Context) decode(f Field, raw string) {
	switch f {
	case FieldOrderID:
		c.OrderID = decodeInt(raw)
	case FieldOrderReference:
		c.OrderReference = raw
	case FieldCartID:
		c.CartID = decodeInt(raw)
	case FieldSuccessCartID:
		c.SuccessCartID = decodeInt(raw)
	case FieldSuccessAt:
		c.SuccessAt = decodeTime(raw)
	case FieldLockUntil:
		c.LockUntil = decodeTime(raw)
	case FieldPendingCleanup:
		c.PendingCleanup = raw == "1"
	}
}

func encodeInt(v int64) (string, bool) {
	if v <= 0 {
		return "", false
	}
	return strconv.FormatInt(v, 10), true
}

func decodeInt(raw string) int64 {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func encodeTime(t time.Time) (string, bool) {
	if t.IsZero() {
		return "", false
	}
	return strconv.FormatInt(t.UnixMilli(), 10), true
}

func decodeTime(raw string) time.Time {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
