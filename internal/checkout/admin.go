package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"clonedirect/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func isAdminEvent(kind domain.EventKind) bool {
	switch kind {
	case domain.EventAdminOrders, domain.EventAdminComplete, domain.EventAdminDelete,
		domain.EventAdminExport, domain.EventAdminRemind:
		return true
	}
	return false
}

// handleAdmin runs operator commands. Callers other than the configured
// operator get a plain rejection, never an error leak.
func (e *Engine) handleAdmin(ctx context.Context, ev domain.Event) ([]domain.Effect, error) {
	if ev.UserID != e.opts.OperatorID {
		e.logger.Warn("admin command from non-operator",
			zap.String("user_id", ev.UserID), zap.String("kind", string(ev.Kind)))
		return []domain.Effect{
			domain.SendText{UserID: ev.UserID, Text: "Sorry, that command isn't available."},
		}, nil
	}

	switch ev.Kind {
	case domain.EventAdminOrders:
		return e.adminListOrders(ctx, ev.UserID)
	case domain.EventAdminComplete:
		return e.adminSetStatus(ctx, ev, domain.OrderCompleted)
	case domain.EventAdminDelete:
		return e.adminSetStatus(ctx, ev, domain.OrderDeleted)
	case domain.EventAdminExport:
		return e.adminExport(ctx, ev.UserID)
	case domain.EventAdminRemind:
		return e.adminRemind(ctx, ev.UserID)
	}
	return []domain.Effect{
		domain.SendText{UserID: ev.UserID, Text: "Unknown admin command."},
	}, nil
}

// adminListOrders applies the lazy 14-day expiry before listing, so aging
// to expired happens exactly once, on the operator's read path.
func (e *Engine) adminListOrders(ctx context.Context, userID string) ([]domain.Effect, error) {
	expired, err := e.ledger.ExpirePendingOlderThan(ctx, e.now().Add(-e.opts.OrderExpireAfter))
	if err != nil {
		return nil, fmt.Errorf("expire stale orders: %w", err)
	}
	if expired > 0 {
		e.logger.Info("expired stale pending orders", zap.Int64("count", expired))
	}

	orders, err := e.ledger.List(ctx, domain.OrderPending)
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}
	if len(orders) == 0 {
		return []domain.Effect{
			domain.SendText{UserID: userID, Text: "No pending orders."},
		}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pending orders (%d):\n", len(orders))
	for _, o := range orders {
		fmt.Fprintf(&b, "#%d  %s  %s  total %s  (%s)\n",
			o.ID, o.CreatedAt.Format("2006-01-02"), o.ContactHandle,
			o.Total.StringFixed(2), o.PaymentMethod)
	}
	return []domain.Effect{domain.SendText{UserID: userID, Text: b.String()}}, nil
}

func (e *Engine) adminSetStatus(ctx context.Context, ev domain.Event, status domain.OrderStatus) ([]domain.Effect, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(ev.Arg), 10, 64)
	if err != nil {
		return []domain.Effect{
			domain.SendText{UserID: ev.UserID, Text: "Usage: pass the numeric order id."},
		}, nil
	}

	var actErr error
	if status == domain.OrderDeleted {
		actErr = e.ledger.Delete(ctx, id)
	} else {
		actErr = e.ledger.SetStatus(ctx, id, status)
	}
	if errors.Is(actErr, domain.ErrNotFound) {
		return []domain.Effect{
			domain.SendText{UserID: ev.UserID, Text: fmt.Sprintf("Order #%d not found.", id)},
		}, nil
	}
	if actErr != nil {
		return nil, fmt.Errorf("admin %s order %d: %w", status, id, actErr)
	}
	return []domain.Effect{
		domain.SendText{UserID: ev.UserID, Text: fmt.Sprintf("Order #%d marked %s.", id, status)},
	}, nil
}

// adminExport writes a full ledger snapshot to a uniquely named file and
// reports the path.
func (e *Engine) adminExport(ctx context.Context, userID string) ([]domain.Effect, error) {
	orders, err := e.ledger.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export ledger: %w", err)
	}

	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export ledger: marshal: %w", err)
	}

	path := filepath.Join(e.opts.ExportDir, "ledger-export-"+uuid.NewString()+".json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("export ledger: write %s: %w", path, err)
	}

	return []domain.Effect{
		domain.SendText{UserID: userID, Text: fmt.Sprintf("Exported %d orders to %s", len(orders), path)},
	}, nil
}

// adminRemind runs the stale-order reminder on demand: one operator
// notification per pending order older than the reminder age.
func (e *Engine) adminRemind(ctx context.Context, userID string) ([]domain.Effect, error) {
	stale, err := e.ledger.ListPendingOlderThan(ctx, e.now().Add(-e.opts.ReminderAge))
	if err != nil {
		return nil, fmt.Errorf("list stale orders: %w", err)
	}

	effects := make([]domain.Effect, 0, len(stale)+1)
	for _, o := range stale {
		effects = append(effects, domain.NotifyOperator{
			Text: fmt.Sprintf("Reminder: order #%d from %s is still pending since %s (total %s).",
				o.ID, o.ContactHandle, o.CreatedAt.Format("2006-01-02"), o.Total.StringFixed(2)),
		})
	}
	effects = append(effects, domain.SendText{
		UserID: userID,
		Text:   fmt.Sprintf("Reminder run queued for %d stale orders.", len(stale)),
	})
	return effects, nil
}
