package remote

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"

	"storefront/cart/logic"
)

// Wire field names shared by client and server.
const (
	fieldCartID    = "cart_id"
	fieldItemID    = "item_id"
	fieldQuantity  = "quantity"
	fieldUnitPrice = "unit_price"
	fieldSubtotal  = "subtotal"
	fieldItems     = "items"
	fieldID        = "id"
	fieldSKU       = "sku"
	fieldName      = "name"
	fieldLineTotal = "line_total"
	fieldImageURL  = "image_url"
)

// CartRequest selects a cart.
type CartRequest struct {
	CartID string
}

// UpdateItemRequest sets the quantity of one line item.
type UpdateItemRequest struct {
	CartID    string
	ItemID    string
	Quantity  int32
	UnitPrice decimal.Decimal
}

// RemoveItemRequest deletes one line item.
type RemoveItemRequest struct {
	CartID string
	ItemID string
}

// Snapshot is the authoritative cart as returned by GetCart.
type Snapshot struct {
	Cart  logic.Cart
	Items []logic.LineItem
}

func encodeCartRequest(req CartRequest) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		fieldCartID: req.CartID,
	})
}

func decodeCartRequest(s *structpb.Struct) CartRequest {
	return CartRequest{CartID: s.GetFields()[fieldCartID].GetStringValue()}
}

func encodeUpdateItemRequest(req UpdateItemRequest) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		fieldCartID:    req.CartID,
		fieldItemID:    req.ItemID,
		fieldQuantity:  req.Quantity,
		fieldUnitPrice: req.UnitPrice.String(),
	})
}

func decodeUpdateItemRequest(s *structpb.Struct) (UpdateItemRequest, error) {
	fields := s.GetFields()
	quantity, err := decodeQuantity(fields[fieldQuantity])
	if err != nil {
		return UpdateItemRequest{}, err
	}
	price, err := decodeMoney(fields[fieldUnitPrice])
	if err != nil {
		return UpdateItemRequest{}, fmt.Errorf("%s: %w", fieldUnitPrice, err)
	}
	if !price.Valid {
		return UpdateItemRequest{}, fmt.Errorf("%s is required", fieldUnitPrice)
	}
	return UpdateItemRequest{
		CartID:    fields[fieldCartID].GetStringValue(),
		ItemID:    fields[fieldItemID].GetStringValue(),
		Quantity:  quantity,
		UnitPrice: price.Decimal,
	}, nil
}

func encodeRemoveItemRequest(req RemoveItemRequest) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		fieldCartID: req.CartID,
		fieldItemID: req.ItemID,
	})
}

func decodeRemoveItemRequest(s *structpb.Struct) RemoveItemRequest {
	fields := s.GetFields()
	return RemoveItemRequest{
		CartID: fields[fieldCartID].GetStringValue(),
		ItemID: fields[fieldItemID].GetStringValue(),
	}
}

func encodeSnapshot(snap Snapshot) (*structpb.Struct, error) {
	items := make([]interface{}, 0, len(snap.Items))
	for _, item := range snap.Items {
		entry := map[string]interface{}{
			fieldID:        item.ID,
			fieldSKU:       item.SKU,
			fieldUnitPrice: item.UnitPrice.String(),
			fieldQuantity:  item.Quantity,
		}
		if item.Name != "" {
			entry[fieldName] = item.Name
		}
		if item.LineTotal.Valid {
			entry[fieldLineTotal] = item.LineTotal.Decimal.String()
		}
		if item.ImageURL != "" {
			entry[fieldImageURL] = item.ImageURL
		}
		items = append(items, entry)
	}

	fields := map[string]interface{}{
		fieldCartID: snap.Cart.ID,
		fieldItems:  items,
	}
	if snap.Cart.Subtotal.Valid {
		fields[fieldSubtotal] = snap.Cart.Subtotal.Decimal.String()
	} else {
		fields[fieldSubtotal] = nil
	}
	return structpb.NewStruct(fields)
}

func decodeSnapshot(s *structpb.Struct) (Snapshot, error) {
	fields := s.GetFields()

	subtotal, err := decodeMoney(fields[fieldSubtotal])
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", fieldSubtotal, err)
	}
	snap := Snapshot{
		Cart: logic.Cart{
			ID:       fields[fieldCartID].GetStringValue(),
			Subtotal: subtotal,
		},
	}

	for i, v := range fields[fieldItems].GetListValue().GetValues() {
		item, err := decodeLineItem(v.GetStructValue())
		if err != nil {
			return Snapshot{}, fmt.Errorf("items[%d]: %w", i, err)
		}
		snap.Items = append(snap.Items, item)
	}
	return snap, nil
}

func decodeLineItem(s *structpb.Struct) (logic.LineItem, error) {
	if s == nil {
		return logic.LineItem{}, fmt.Errorf("not an object")
	}
	fields := s.GetFields()

	id := fields[fieldID].GetStringValue()
	if id == "" {
		return logic.LineItem{}, fmt.Errorf("%s is required", fieldID)
	}
	price, err := decodeMoney(fields[fieldUnitPrice])
	if err != nil {
		return logic.LineItem{}, fmt.Errorf("%s: %w", fieldUnitPrice, err)
	}
	if !price.Valid {
		return logic.LineItem{}, fmt.Errorf("%s is required", fieldUnitPrice)
	}
	quantity, err := decodeQuantity(fields[fieldQuantity])
	if err != nil {
		return logic.LineItem{}, err
	}
	lineTotal, err := decodeMoney(fields[fieldLineTotal])
	if err != nil {
		return logic.LineItem{}, fmt.Errorf("%s: %w", fieldLineTotal, err)
	}

	return logic.LineItem{
		ID:        id,
		SKU:       fields[fieldSKU].GetStringValue(),
		Name:      fields[fieldName].GetStringValue(),
		UnitPrice: price.Decimal,
		Quantity:  quantity,
		LineTotal: lineTotal,
		ImageURL:  fields[fieldImageURL].GetStringValue(),
	}, nil
}

// decodeMoney accepts a decimal string or a number. Absent and null values
// decode as not valid; zero is a valid amount.
func decodeMoney(v *structpb.Value) (decimal.NullDecimal, error) {
	if v == nil {
		return decimal.NullDecimal{}, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return decimal.NullDecimal{}, nil
	case *structpb.Value_NumberValue:
		if math.IsNaN(kind.NumberValue) || math.IsInf(kind.NumberValue, 0) {
			return decimal.NullDecimal{}, fmt.Errorf("not a finite number")
		}
		return decimal.NewNullDecimal(decimal.NewFromFloat(kind.NumberValue)), nil
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(kind.StringValue)
		if err != nil {
			return decimal.NullDecimal{}, err
		}
		return decimal.NewNullDecimal(d), nil
	default:
		return decimal.NullDecimal{}, fmt.Errorf("unexpected value %T", kind)
	}
}

func decodeQuantity(v *structpb.Value) (int32, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%s must be a number", fieldQuantity)
	}
	q := n.NumberValue
	if q != math.Trunc(q) || q < 1 || q > math.MaxInt32 {
		return 0, fmt.Errorf("%s must be a positive integer, got %v", fieldQuantity, q)
	}
	return int32(q), nil
}
