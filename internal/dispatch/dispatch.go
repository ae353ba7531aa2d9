package dispatch

import (
	"context"
	"sync"

	"clonedirect/internal/domain"
	sessionrepo "clonedirect/internal/repository/session"
	"go.uber.org/zap"
)

// Sender realizes effects against the transport.
type Sender interface {
	SendText(ctx context.Context, e domain.SendText) error
	SendMedia(ctx context.Context, e domain.SendMedia) error
	SendChoices(ctx context.Context, e domain.SendChoices) error
	NotifyOperator(ctx context.Context, e domain.NotifyOperator) error
}

type engine interface {
	Handle(ctx context.Context, s *domain.Session, ev domain.Event) ([]domain.Effect, error)
}

// Dispatcher serializes event handling per user: one in-flight event per
// user id, while different users proceed concurrently. It owns the
// load-handle-save cycle around the state machine and delivers the
// resulting effects.
type Dispatcher struct {
	sessions sessionrepo.Store
	engine   engine
	sender   Sender
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func New(sessions sessionrepo.Store, eng engine, sender Sender, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		sessions: sessions,
		engine:   eng,
		sender:   sender,
		logger:   logger,
		locks:    make(map[string]*userLock),
	}
}

// Dispatch applies one inbound event. Per-user event ordering is preserved
// by holding the user's lock for the whole load-handle-save-deliver cycle.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.Event) error {
	unlock := d.lockUser(ev.UserID)
	defer unlock()

	sess, err := d.sessions.GetOrCreate(ctx, ev.UserID)
	if err != nil {
		d.logger.Error("session load failed",
			zap.String("user_id", ev.UserID), zap.Error(err))
		d.send(ctx, domain.SendText{UserID: ev.UserID, Text: "Something went wrong, please try again."})
		return err
	}

	effects, handleErr := d.engine.Handle(ctx, sess, ev)
	if handleErr != nil {
		d.logger.Error("event handling failed",
			zap.String("user_id", ev.UserID),
			zap.String("kind", string(ev.Kind)),
			zap.Error(handleErr))
	}

	// A lost in-flight session only costs the user one re-entry, so a
	// failed save is retried once and then dropped with a warning.
	if err := d.sessions.Save(ctx, sess); err != nil {
		if err = d.sessions.Save(ctx, sess); err != nil {
			d.logger.Warn("session save failed, conversation state dropped",
				zap.String("user_id", ev.UserID), zap.Error(err))
		}
	}

	d.deliver(ctx, ev.UserID, effects)
	return handleErr
}

// deliver realizes effects in order. An operator-notification failure never
// unwinds anything already committed; the user gets a soft notice instead.
func (d *Dispatcher) deliver(ctx context.Context, userID string, effects []domain.Effect) {
	for _, eff := range effects {
		switch v := eff.(type) {
		case domain.SendText:
			d.send(ctx, v)
		case domain.SendMedia:
			if err := d.sender.SendMedia(ctx, v); err != nil {
				d.logger.Warn("send media failed", zap.String("user_id", v.UserID), zap.Error(err))
			}
		case domain.SendChoices:
			if err := d.sender.SendChoices(ctx, v); err != nil {
				d.logger.Warn("send choices failed", zap.String("user_id", v.UserID), zap.Error(err))
			}
		case domain.NotifyOperator:
			if err := d.sender.NotifyOperator(ctx, v); err != nil {
				d.logger.Error("operator notification failed", zap.Error(err))
				d.send(ctx, domain.SendText{
					UserID: userID,
					Text:   "Your order is recorded, but the operator notification may be delayed.",
				})
			}
		default:
			d.logger.Warn("unknown effect type dropped")
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, e domain.SendText) {
	if err := d.sender.SendText(ctx, e); err != nil {
		d.logger.Warn("send text failed", zap.String("user_id", e.UserID), zap.Error(err))
	}
}

// lockUser returns an unlock func for the per-user mutex. Entries are
// refcounted and evicted once uncontended, so the map tracks in-flight users
// rather than everyone ever seen.
func (d *Dispatcher) lockUser(userID string) func() {
	d.mu.Lock()
	l, ok := d.locks[userID]
	if !ok {
		l = &userLock{}
		d.locks[userID] = l
	}
	l.refs++
	d.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		d.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.locks, userID)
		}
		d.mu.Unlock()
	}
}
