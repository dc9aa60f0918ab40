package jobs

import (
	"context"
	"time"

	"rentdesk-backend/internal/logger"
)

// MarkOverdueInstallments flips pending installments whose due date has
// passed to OVERDUE so that derived payment status reflects them.
func (jr *JobRunner) MarkOverdueInstallments() {
	jr.runWithRecovery("mark_overdue_installments", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		updated, err := jr.store.MarkOverdueDueBefore(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("Failed to mark overdue installments", "error", err)
			return
		}
		if updated > 0 {
			logger.Info("Marked installments overdue", "count", updated)
		}
	})
}

// SendOverdueReminders emits a reminder event for every in-progress booking
// whose end date has passed without a recorded return.
func (jr *JobRunner) SendOverdueReminders() {
	jr.runWithRecovery("send_overdue_reminders", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		now := time.Now().UTC()
		overdue, err := jr.store.ListDueBefore(ctx, now)
		if err != nil {
			logger.Error("Failed to list overdue bookings", "error", err)
			return
		}

		sent := 0
		for i := range overdue {
			b := &overdue[i]
			if !b.IsOverdue(now) {
				continue
			}
			jr.bookings.EmitReminder(ctx, b)
			sent++
		}
		if sent > 0 {
			logger.Info("Sent overdue reminders", "count", sent)
		}
	})
}

// ReconcileUnitCounters refreshes the cached availability counter for every
// product from the authoritative store.
func (jr *JobRunner) ReconcileUnitCounters() {
	jr.runWithRecovery("reconcile_unit_counters", func() {
		if jr.cache == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		var page int32 = 1
		const pageSize int32 = 200
		reconciled := 0
		for {
			products, total, err := jr.store.List(ctx, page, pageSize)
			if err != nil {
				logger.Error("Failed to list products for reconciliation", "error", err)
				return
			}
			for i := range products {
				p := &products[i]
				if err := jr.cache.SetAvailable(ctx, p.ID, p.AvailableUnits); err != nil {
					logger.Warn("Failed to refresh unit counter", "product_id", p.ID, "error", err)
					continue
				}
				reconciled++
			}
			if int64(page)*int64(pageSize) >= int64(total) {
				break
			}
			page++
		}
		logger.Info("Reconciled unit counters", "count", reconciled)
	})
}
