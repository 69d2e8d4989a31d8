package logic

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

type updateCall struct {
	ID        string
	Quantity  int32
	UnitPrice decimal.Decimal
}

// fakeCartService records every call and mimics a refetch on success.
type fakeCartService struct {
	mu         sync.Mutex
	cart       *Cart
	items      []LineItem
	updates    []updateCall
	removes    []string
	clears     int
	updateErr  error
	removeErrs map[string]error
	during     func()
	removeHook func(id string)
}

func newFakeCartService(items ...LineItem) *fakeCartService {
	return &fakeCartService{items: items, removeErrs: make(map[string]error)}
}

func (f *fakeCartService) Cart() *Cart {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cart
}

func (f *fakeCartService) Items() []LineItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]LineItem, len(f.items))
	copy(out, f.items)
	return out
}

func (f *fakeCartService) LocalTotal() decimal.Decimal {
	return Subtotal(f.Items())
}

func (f *fakeCartService) Update(ctx context.Context, id string, quantity int32, unitPrice decimal.Decimal) error {
	if f.during != nil {
		f.during()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{ID: id, Quantity: quantity, UnitPrice: unitPrice})
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Quantity = quantity
		}
	}
	return nil
}

func (f *fakeCartService) Remove(ctx context.Context, id string) error {
	if f.during != nil {
		f.during()
	}
	if f.removeHook != nil {
		f.removeHook(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes = append(f.removes, id)
	if err := f.removeErrs[id]; err != nil {
		return err
	}
	kept := f.items[:0]
	for _, item := range f.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeCartService) ClearLocal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = nil
	f.cart = nil
	f.clears++
}

func (f *fakeCartService) updateCalls() []updateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]updateCall(nil), f.updates...)
}

func (f *fakeCartService) removeCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removes...)
}

func item(id string, unitPrice string, quantity int32) LineItem {
	return LineItem{
		ID:        id,
		SKU:       "sku-" + id,
		UnitPrice: decimal.RequireFromString(unitPrice),
		Quantity:  quantity,
	}
}

// transitionRecorder collects serializer transitions.
type transitionRecorder struct {
	mu    sync.Mutex
	steps []MutationState
}

func (r *transitionRecorder) record(_, to MutationState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, to)
}

func (r *transitionRecorder) transitions() []MutationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MutationState(nil), r.steps...)
}
