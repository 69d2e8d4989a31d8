package logic

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

func newTestPage(svc *fakeCartService) (CartPage, *Serializer, *transitionRecorder) {
	s := NewSerializer()
	rec := &transitionRecorder{}
	s.Observe(rec.record)
	return NewCartPage(svc, s, nil), s, rec
}

func TestIncrement_IssuesOneUpdateWithNextQuantity(t *testing.T) {
	svc := newFakeCartService(item("1", "12.50", 2))
	page, s, rec := newTestPage(svc)

	if err := page.Increment(context.Background(), "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := svc.updateCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 update, got %d", len(calls))
	}
	if calls[0].ID != "1" || calls[0].Quantity != 3 {
		t.Errorf("expected update(1, 3), got update(%s, %d)", calls[0].ID, calls[0].Quantity)
	}
	if !calls[0].UnitPrice.Equal(dec("12.50")) {
		t.Errorf("expected unit price 12.50, got %s", calls[0].UnitPrice)
	}
	if s.State() != Idle {
		t.Errorf("expected idle, got %s", s.State())
	}
	if got := rec.transitions(); len(got) != 2 {
		t.Errorf("expected busy then idle, got %v", got)
	}
}

func TestIncrement_BusyWhileUpdating(t *testing.T) {
	svc := newFakeCartService(item("1", "1", 1))
	page, s, _ := newTestPage(svc)

	var during MutationState
	svc.during = func() { during = s.State() }

	_ = page.Increment(context.Background(), "1")

	if during != Busy {
		t.Errorf("expected busy during update, got %s", during)
	}
}

func TestIncrement_PropagatesFailureAndReturnsIdle(t *testing.T) {
	svc := newFakeCartService(item("1", "1", 1))
	svc.updateErr = errors.New("out of stock")
	page, s, _ := newTestPage(svc)

	err := page.Increment(context.Background(), "1")

	if err != svc.updateErr {
		t.Errorf("expected collaborator error unchanged, got %v", err)
	}
	if s.State() != Idle {
		t.Errorf("expected idle after failure, got %s", s.State())
	}
}

func TestIncrement_UnknownItem(t *testing.T) {
	svc := newFakeCartService(item("1", "1", 1))
	page, _, rec := newTestPage(svc)

	err := page.Increment(context.Background(), "missing")

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Code != StatusFailedPrecondition {
		t.Fatalf("expected FAILED_PRECONDITION, got %v", err)
	}
	if len(svc.updateCalls()) != 0 || len(rec.transitions()) != 0 {
		t.Error("expected no request and no transition")
	}
}

func TestIncrement_EmptyID(t *testing.T) {
	page, _, _ := newTestPage(newFakeCartService())

	err := page.Increment(context.Background(), "")

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Code != StatusInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestDecrement_AtOneIsNoop(t *testing.T) {
	svc := newFakeCartService(item("1", "9.99", 1))
	page, s, rec := newTestPage(svc)

	if err := page.Decrement(context.Background(), "1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(svc.updateCalls()) != 0 {
		t.Errorf("expected no update, got %v", svc.updateCalls())
	}
	if len(rec.transitions()) != 0 {
		t.Errorf("expected serializer untouched, got %v", rec.transitions())
	}
	if s.State() != Idle {
		t.Errorf("expected idle, got %s", s.State())
	}
	items := svc.Items()
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Errorf("expected item unchanged at quantity 1, got %+v", items)
	}
}

func TestDecrement_AboveOne(t *testing.T) {
	svc := newFakeCartService(item("1", "3", 4))
	page, _, _ := newTestPage(svc)

	if err := page.Decrement(context.Background(), "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := svc.updateCalls()
	if len(calls) != 1 || calls[0].Quantity != 3 || !calls[0].UnitPrice.Equal(dec("3")) {
		t.Errorf("expected update(1, 3, 3), got %+v", calls)
	}
}

func TestDecrement_PropagatesFailure(t *testing.T) {
	svc := newFakeCartService(item("1", "3", 2))
	svc.updateErr = errors.New("validation failed")
	page, s, _ := newTestPage(svc)

	if err := page.Decrement(context.Background(), "1"); err != svc.updateErr {
		t.Errorf("expected collaborator error, got %v", err)
	}
	if s.State() != Idle {
		t.Errorf("expected idle, got %s", s.State())
	}
}

func TestRemove_IssuesRemoveUnconditionally(t *testing.T) {
	svc := newFakeCartService(item("1", "3", 2))
	page, _, _ := newTestPage(svc)

	if err := page.Remove(context.Background(), "ghost"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := page.Remove(context.Background(), "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := strings.Join(svc.removeCalls(), ","); got != "ghost,1" {
		t.Errorf("expected removals ghost,1 got %s", got)
	}
	if page.View().State != Empty {
		t.Error("expected empty state after removing the last item")
	}
}

func TestRemove_PropagatesFailure(t *testing.T) {
	svc := newFakeCartService(item("1", "3", 2))
	svc.removeErrs["1"] = errors.New("gone")
	page, s, _ := newTestPage(svc)

	if err := page.Remove(context.Background(), "1"); err != svc.removeErrs["1"] {
		t.Errorf("expected collaborator error, got %v", err)
	}
	if s.State() != Idle {
		t.Errorf("expected idle, got %s", s.State())
	}
}

func TestClearAll_EmptyCartIsNoop(t *testing.T) {
	svc := newFakeCartService()
	page, _, rec := newTestPage(svc)

	if err := page.ClearAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(svc.removeCalls()) != 0 || len(rec.transitions()) != 0 {
		t.Error("expected no removals and no transitions")
	}
}

func TestClearAll_AbsorbsPartialFailure(t *testing.T) {
	svc := newFakeCartService(item("1", "1", 1), item("2", "2", 2), item("3", "3", 3))
	svc.removeErrs["2"] = errors.New("unavailable")
	page, s, _ := newTestPage(svc)

	if err := page.ClearAll(context.Background()); err != nil {
		t.Fatalf("expected clear-all to absorb failures, got %v", err)
	}
	if len(svc.removeCalls()) != 3 {
		t.Errorf("expected 3 removals, got %v", svc.removeCalls())
	}
	view := page.View()
	if view.State != Empty || len(view.Lines) != 0 {
		t.Errorf("expected empty view, got %+v", view)
	}
	if s.State() != Idle {
		t.Errorf("expected idle, got %s", s.State())
	}
}

func TestMutations_RefusedWhileBusy(t *testing.T) {
	svc := newFakeCartService(item("1", "1", 2))
	page, s, _ := newTestPage(svc)

	var errs []error
	_ = s.Run(context.Background(), func(ctx context.Context) error {
		errs = append(errs,
			page.Increment(ctx, "1"),
			page.Decrement(ctx, "1"),
			page.Remove(ctx, "1"),
			page.ClearAll(ctx),
		)
		return nil
	})

	for i, err := range errs {
		if err != ErrMutationInProgress {
			t.Errorf("mutation %d: expected ErrMutationInProgress, got %v", i, err)
		}
	}
	if len(svc.updateCalls()) != 0 || len(svc.removeCalls()) != 0 {
		t.Error("expected no requests while busy")
	}
}

func TestView_UsesServerSubtotal(t *testing.T) {
	svc := newFakeCartService(item("1", "1000", 2), item("2", "500", 1))
	svc.cart = &Cart{ID: "c1", Subtotal: nullDec("100")}
	page, _, _ := newTestPage(svc)

	view := page.View()

	assertMoney(t, "subtotal", view.Totals.Subtotal, "100")
	assertMoney(t, "tax", view.Totals.Tax, "8")
	assertMoney(t, "total", view.Totals.Total, "108")
}

func TestView_FallsBackToLocalTotal(t *testing.T) {
	svc := newFakeCartService(item("1", "1000", 2), item("2", "500", 1))
	page, _, _ := newTestPage(svc)

	view := page.View()

	if view.State != Populated || len(view.Lines) != 2 {
		t.Fatalf("expected populated view with 2 lines, got %+v", view)
	}
	assertMoney(t, "subtotal", view.Totals.Subtotal, "2500.00")
	assertMoney(t, "tax", view.Totals.Tax, "200.00")
	assertMoney(t, "total", view.Totals.Total, "2700.00")
}

func TestSummary_Populated(t *testing.T) {
	svc := newFakeCartService(item("1", "1000", 2), item("2", "500", 1))
	page, _, _ := newTestPage(svc)

	summary := page.Summary()

	for _, want := range []string{"2 x sku-1 @ $1000.00 = $2000.00", "Subtotal: $2500.00", "Tax:      $200.00", "Total:    $2700.00"} {
		if !strings.Contains(summary, want) {
			t.Errorf("expected summary to contain %q, got:\n%s", want, summary)
		}
	}
}

func TestSummary_Empty(t *testing.T) {
	page, _, _ := newTestPage(newFakeCartService())

	if summary := page.Summary(); !strings.Contains(summary, "Your cart is empty.") {
		t.Errorf("expected empty message, got:\n%s", summary)
	}
}

// stalledReader returns the first Items snapshot only after release is
// closed, so a second intent can finish in between.
type stalledReader struct {
	*fakeCartService
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func newStalledReader(svc *fakeCartService) *stalledReader {
	return &stalledReader{fakeCartService: svc, entered: make(chan struct{}), release: make(chan struct{})}
}

func (r *stalledReader) Items() []LineItem {
	items := r.fakeCartService.Items()
	if r.calls.Add(1) == 1 {
		close(r.entered)
		<-r.release
	}
	return items
}

// overlap starts first in the background, waits until it has read the cart,
// runs second to completion and then lets first continue.
func overlap(t *testing.T, svc *stalledReader, first, second func() error) {
	t.Helper()
	firstErr := make(chan error, 1)
	go func() { firstErr <- first() }()
	<-svc.entered

	if err := second(); err != nil {
		t.Fatalf("second intent: unexpected error: %v", err)
	}
	close(svc.release)
	if err := <-firstErr; err != nil {
		t.Fatalf("first intent: unexpected error: %v", err)
	}
}

func TestIncrement_OverlappingIntentsBothApply(t *testing.T) {
	svc := newFakeCartService(item("1", "5", 2))
	stalled := newStalledReader(svc)
	page := NewCartPage(stalled, NewSerializer(), nil)
	ctx := context.Background()

	overlap(t, stalled,
		func() error { return page.Increment(ctx, "1") },
		func() error { return page.Increment(ctx, "1") })

	calls := svc.updateCalls()
	if len(calls) != 2 || calls[0].Quantity != 3 || calls[1].Quantity != 4 {
		t.Errorf("expected updates to 3 then 4, got %+v", calls)
	}
	if got := svc.Items()[0].Quantity; got != 4 {
		t.Errorf("expected quantity 4 after two increments from 2, got %d", got)
	}
}

func TestDecrement_OverlappingIntentsBothApply(t *testing.T) {
	svc := newFakeCartService(item("1", "5", 4))
	stalled := newStalledReader(svc)
	page := NewCartPage(stalled, NewSerializer(), nil)
	ctx := context.Background()

	overlap(t, stalled,
		func() error { return page.Decrement(ctx, "1") },
		func() error { return page.Decrement(ctx, "1") })

	if got := svc.Items()[0].Quantity; got != 2 {
		t.Errorf("expected quantity 2 after two decrements from 4, got %d", got)
	}
}

func TestDecrement_OverlapStopsAtOne(t *testing.T) {
	svc := newFakeCartService(item("1", "5", 2))
	stalled := newStalledReader(svc)
	page := NewCartPage(stalled, NewSerializer(), nil)
	ctx := context.Background()

	overlap(t, stalled,
		func() error { return page.Decrement(ctx, "1") },
		func() error { return page.Decrement(ctx, "1") })

	if calls := svc.updateCalls(); len(calls) != 1 || calls[0].Quantity != 1 {
		t.Errorf("expected a single update to 1, got %+v", calls)
	}
	if got := svc.Items()[0].Quantity; got != 1 {
		t.Errorf("expected quantity to stay at 1, got %d", got)
	}
}
