package order

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// MalformedOrderError indicates a raw document that cannot represent an
// order because its items field is missing. Callers drop the single order
// and keep serving the rest of the listing.
type MalformedOrderError struct {
	OrderID string
}

func (e *MalformedOrderError) Error() string {
	return fmt.Sprintf("order %q is malformed: items field is missing", e.OrderID)
}

// Normalizer converts raw persisted order documents into canonical Orders.
// It is a pure mapping with no side effects; the clock is injected so the
// timestamp fallback is testable.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a Normalizer using the wall clock.
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// Normalize decodes a raw order document. A document without an items key
// (or with a non-array items value) yields *MalformedOrderError; an empty
// items array is a valid zero-item order. Missing or unparseable timestamps
// fall back to the current time rather than failing.
func (n *Normalizer) Normalize(doc []byte) (*Order, error) {
	d := jx.DecodeBytes(doc)

	o := &Order{}
	itemsSeen := false
	var createdAt, updatedAt timeValue

	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			o.ID, err = d.Str()
		case "userId":
			o.CustomerID, err = d.Str()
		case "userEmail":
			o.CustomerEmail, err = d.Str()
		case "status":
			var s string
			s, err = d.Str()
			o.Status = Status(s)
		case "deliveryAddress":
			o.DeliveryAddress, err = d.Str()
		case "paymentMethod":
			o.PaymentMethod, err = d.Str()
		case "createdAt":
			createdAt, err = decodeTime(d)
		case "updatedAt":
			updatedAt, err = decodeTime(d)
		case "items":
			if d.Next() != jx.Array {
				// Null or wrong-typed items counts as missing.
				return d.Skip()
			}
			itemsSeen = true
			o.Items = []LineItem{}
			err = d.Arr(func(d *jx.Decoder) error {
				it, itemErr := decodeItem(d)
				if itemErr != nil {
					return itemErr
				}
				o.Items = append(o.Items, it)
				return nil
			})
		case "summary":
			o.StoredSummary, err = decodeSummary(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return nil, errors.Wrap(err, "decode order document")
	}

	if !itemsSeen {
		return nil, &MalformedOrderError{OrderID: o.ID}
	}

	now := n.now()
	o.CreatedAt = createdAt.orElse(now)
	o.UpdatedAt = updatedAt.orElse(now)

	return o, nil
}

// timeValue is an optional timestamp decoded from a document. Provider
// timestamps arrive as RFC3339 strings or as {seconds,nanoseconds} objects;
// both forms and absence are handled explicitly instead of through a zero
// time.Time.
type timeValue struct {
	t  time.Time
	ok bool
}

func (v timeValue) orElse(fallback time.Time) time.Time {
	if v.ok {
		return v.t
	}
	return fallback
}

func decodeTime(d *jx.Decoder) (timeValue, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return timeValue{}, err
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			// Unparseable timestamps degrade to the wall-clock fallback.
			return timeValue{}, nil
		}
		return timeValue{t: t, ok: true}, nil
	case jx.Object:
		var secs, nanos int64
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "seconds", "_seconds":
				secs, err = d.Int64()
			case "nanoseconds", "_nanoseconds":
				nanos, err = d.Int64()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return timeValue{}, err
		}
		return timeValue{t: time.Unix(secs, nanos).UTC(), ok: true}, nil
	case jx.Null:
		return timeValue{}, d.Null()
	default:
		return timeValue{}, d.Skip()
	}
}

func decodeItem(d *jx.Decoder) (LineItem, error) {
	var it LineItem
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			it.ProductID, err = d.Str()
		case "name":
			it.ProductName, err = d.Str()
		case "price":
			it.UnitPrice, err = decodeAmount(d)
		case "quantity":
			it.Quantity, err = d.Int()
		case "unit":
			it.Unit, err = d.Str()
		case "orderType":
			it.OrderType, err = d.Str()
		case "supplierId":
			it.SupplierID, err = d.Str()
		case "supplierName":
			it.SupplierName, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return it, err
}

func decodeSummary(d *jx.Decoder) (*Summary, error) {
	if d.Next() != jx.Object {
		return nil, d.Skip()
	}
	var s Summary
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "subtotal":
			s.Subtotal, err = decodeAmount(d)
		case "tax":
			s.Tax, err = decodeAmount(d)
		case "total":
			s.Total, err = decodeAmount(d)
		case "itemCount":
			s.ItemCount, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// decodeAmount accepts monetary values serialized as JSON numbers or as
// numeric strings, preserving exactness by parsing the raw literal.
func decodeAmount(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(string(n))
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Decimal{}, errors.New("amount must be a number")
	}
}
