package logic

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ClearReport describes how a bulk clear went on the remote side. The local
// cart is empty afterwards whatever the report says.
type ClearReport struct {
	Requested int
	Failed    int
	Err       error
}

func (r ClearReport) Partial() bool {
	return r.Failed > 0
}

// BulkRemover is implemented by services that can remove an item without
// resyncing their snapshot. BulkClearer prefers it, since the snapshot is
// reset once every removal has settled.
type BulkRemover interface {
	RemoveOnly(ctx context.Context, id string) error
}

// BulkClearer removes every line item from the remote cart and then resets the
// local snapshot.
type BulkClearer struct {
	svc        CartService
	serializer *Serializer
	logger     *zap.Logger
}

func NewBulkClearer(svc CartService, serializer *Serializer, logger *zap.Logger) *BulkClearer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkClearer{svc: svc, serializer: serializer, logger: logger}
}

// Clear issues one remove per item concurrently and waits for all of them to
// settle. A failed removal never cancels its siblings and never prevents the
// local reset. With no items nothing is sent and the serializer is untouched.
// The only error returned is ErrMutationInProgress.
func (c *BulkClearer) Clear(ctx context.Context, items []LineItem) (ClearReport, error) {
	if len(items) == 0 {
		return ClearReport{}, nil
	}

	var report ClearReport
	err := c.serializer.Run(ctx, func(ctx context.Context) error {
		report = c.removeAll(ctx, items)
		c.svc.ClearLocal()
		return nil
	})
	if err != nil {
		return ClearReport{}, err
	}

	if report.Partial() {
		c.logger.Warn("cart cleared locally with remote removals failing",
			zap.Int("requested", report.Requested),
			zap.Int("failed", report.Failed),
			zap.Error(report.Err),
		)
	} else {
		c.logger.Info("cart cleared", zap.Int("requested", report.Requested))
	}
	return report, nil
}

func (c *BulkClearer) removeAll(ctx context.Context, items []LineItem) ClearReport {
	remove := c.svc.Remove
	if r, ok := c.svc.(BulkRemover); ok {
		remove = r.RemoveOnly
	}

	// No derived context: one failure must not cancel the other removals.
	var g errgroup.Group
	errs := make([]error, len(items))
	for i, item := range items {
		g.Go(func() error {
			errs[i] = remove(ctx, item.ID)
			return nil
		})
	}
	_ = g.Wait()

	report := ClearReport{Requested: len(items)}
	for i, err := range errs {
		if err == nil {
			continue
		}
		report.Failed++
		report.Err = multierr.Append(report.Err, fmt.Errorf("remove %s: %w", items[i].ID, err))
	}
	return report
}
