package ws

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vaderpos/inventory-service/internal/ledger"
	"github.com/vaderpos/inventory-service/internal/metrics"
	"github.com/vaderpos/inventory-service/pkg/eventbus"
	"github.com/vaderpos/inventory-service/pkg/model"
)

// Hub is the broadcast coordinator. It subscribes to the change-event bus,
// coalesces pending changes, resolves current state from the ledger, and
// fans the result out to every registered connection. Dispatch runs on the
// hub goroutine, decoupled from the ledger's mutation critical section, so
// a stalled client can never block a writer.
type Hub struct {
	ledger   *ledger.Ledger
	registry *Registry
	sub      *eventbus.Subscription
	logger   *zap.Logger
}

// NewHub subscribes to bus with the given buffer size and returns a Hub
// ready to Run. A non-positive buffer falls back to 256.
func NewHub(l *ledger.Ledger, reg *Registry, bus *eventbus.Bus, buffer int, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 256
	}
	return &Hub{
		ledger:   l,
		registry: reg,
		sub:      bus.Subscribe(buffer),
		logger:   logger,
	}
}

// pending accumulates coalesced change markers for one notification cycle.
// A delete (or bus overflow) forces a global resync for that entity kind:
// the deleted entity cannot be re-fetched, so subscribers get the full
// remaining set instead.
type pending struct {
	productIDs     map[int64]struct{}
	productGlobal  bool
	categoryIDs    map[int64]struct{}
	categoryGlobal bool
}

func newPending() *pending {
	return &pending{
		productIDs:  make(map[int64]struct{}),
		categoryIDs: make(map[int64]struct{}),
	}
}

func (p *pending) add(ev eventbus.Event) {
	switch ev.Kind {
	case eventbus.ProductChanged:
		p.productIDs[ev.ID] = struct{}{}
	case eventbus.ProductDeleted:
		p.productGlobal = true
	case eventbus.CategoryChanged:
		p.categoryIDs[ev.ID] = struct{}{}
	case eventbus.CategoryDeleted:
		p.categoryGlobal = true
	}
}

// Run consumes change events until ctx is cancelled or the subscription
// closes. Each wakeup drains everything already queued so bursts collapse
// into a single dispatch cycle.
func (h *Hub) Run(ctx context.Context) {
	defer h.sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-h.sub.Events():
			if !ok {
				return
			}
			p := newPending()
			p.add(ev)
			h.drainInto(p)

			if h.sub.Overflowed() {
				metrics.EventOverflowsTotal.Inc()
				h.logger.Warn("ws.hub.event_overflow")
				p.productGlobal = true
				p.categoryGlobal = true
			}

			h.dispatch(ctx, p)
		}
	}
}

func (h *Hub) drainInto(p *pending) {
	for {
		select {
		case ev, ok := <-h.sub.Events():
			if !ok {
				return
			}
			p.add(ev)
		default:
			return
		}
	}
}

// dispatch resolves and ships one notification cycle. Pending markers are
// owned by the caller and discarded afterwards regardless of per-connection
// send failures, so partial delivery never causes a redelivery storm.
func (h *Hub) dispatch(ctx context.Context, p *pending) {
	if p.productGlobal || len(p.productIDs) > 0 {
		h.dispatchProducts(ctx, p)
	}
	if p.categoryGlobal || len(p.categoryIDs) > 0 {
		h.dispatchCategories(ctx, p)
	}
}

func (h *Hub) dispatchProducts(ctx context.Context, p *pending) {
	if !p.productGlobal && len(p.productIDs) == 1 {
		var id int64
		for changed := range p.productIDs {
			id = changed
		}
		product, err := h.ledger.GetProduct(ctx, id)
		switch {
		case err == nil:
			h.sendToAll(singleProductBroadcast{
				Type:           typeProductUpdate,
				Timestamp:      time.Now().UnixMilli(),
				UpdateType:     updateTypeSingle,
				UpdatedProduct: product.ToDTO(),
			})
			metrics.IncBroadcast("product", updateTypeSingle)
			return
		case isProductNotFound(err):
			// Changed entity vanished between commit and resolve; fall
			// through to a global resync.
		default:
			h.logger.Error("ws.hub.resolve_product_failed", zap.Int64("product_id", id), zap.Error(err))
			return
		}
	}

	products, err := h.ledger.GetAllProducts(ctx)
	if err != nil {
		h.logger.Error("ws.hub.list_products_failed", zap.Error(err))
		return
	}
	h.sendToAll(globalProductBroadcast{
		Type:       typeProductUpdate,
		Timestamp:  time.Now().UnixMilli(),
		UpdateType: updateTypeGlobal,
		Products:   model.ProductDTOs(products),
	})
	metrics.IncBroadcast("product", updateTypeGlobal)
}

func (h *Hub) dispatchCategories(ctx context.Context, p *pending) {
	if !p.categoryGlobal && len(p.categoryIDs) == 1 {
		var id int64
		for changed := range p.categoryIDs {
			id = changed
		}
		category, err := h.ledger.GetCategory(ctx, id)
		switch {
		case err == nil:
			h.sendToAll(singleCategoryBroadcast{
				Type:            typeCategoryUpdate,
				Timestamp:       time.Now().UnixMilli(),
				UpdateType:      updateTypeSingle,
				UpdatedCategory: category.ToDTO(),
			})
			metrics.IncBroadcast("category", updateTypeSingle)
			return
		case isCategoryNotFound(err):
		default:
			h.logger.Error("ws.hub.resolve_category_failed", zap.Int64("category_id", id), zap.Error(err))
			return
		}
	}

	categories, err := h.ledger.GetAllCategories(ctx)
	if err != nil {
		h.logger.Error("ws.hub.list_categories_failed", zap.Error(err))
		return
	}
	h.sendToAll(globalCategoryBroadcast{
		Type:       typeCategoryUpdate,
		Timestamp:  time.Now().UnixMilli(),
		UpdateType: updateTypeGlobal,
		Categories: model.CategoryDTOs(categories),
	})
	metrics.IncBroadcast("category", updateTypeGlobal)
}

// SendSnapshot pushes the full product and category sets to a single
// connection. Used for initial sync right after registration.
func (h *Hub) SendSnapshot(ctx context.Context, c *Conn) error {
	products, err := h.ledger.GetAllProducts(ctx)
	if err != nil {
		return err
	}
	if err := c.SendJSON(globalProductBroadcast{
		Type:       typeProductUpdate,
		Timestamp:  time.Now().UnixMilli(),
		UpdateType: updateTypeGlobal,
		Products:   model.ProductDTOs(products),
	}); err != nil {
		return err
	}

	categories, err := h.ledger.GetAllCategories(ctx)
	if err != nil {
		return err
	}
	return c.SendJSON(globalCategoryBroadcast{
		Type:       typeCategoryUpdate,
		Timestamp:  time.Now().UnixMilli(),
		UpdateType: updateTypeGlobal,
		Categories: model.CategoryDTOs(categories),
	})
}

// sendToAll delivers msg to a stable snapshot of the registry. A failed
// send drops only that connection; delivery to the rest continues.
func (h *Hub) sendToAll(msg any) {
	for _, c := range h.registry.Snapshot() {
		if err := c.SendJSON(msg); err != nil {
			metrics.BroadcastSendFailures.Inc()
			h.logger.Warn("ws.hub.send_failed",
				zap.String("session_id", c.ID()),
				zap.Error(err))
			h.registry.Unregister(c)
			c.Close()
		}
	}
}

func isProductNotFound(err error) bool {
	var notFound *ledger.ProductNotFoundError
	return errors.As(err, &notFound)
}

func isCategoryNotFound(err error) bool {
	var notFound *ledger.CategoryNotFoundError
	return errors.As(err, &notFound)
}
