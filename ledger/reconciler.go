package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/tradebridge/bridge"
	"github.com/rustyeddy/tradebridge/pkg/id"
)

// TradeWriter is the slice of the store the reconciler writes through.
type TradeWriter interface {
	InsertTrade(ctx context.Context, t Trade) error
}

// Reconciler orchestrates quote-submit-persist as one caller-visible
// operation. The remote leg runs first; a trade row is created only after
// the venue confirms execution, never speculatively.
type Reconciler struct {
	orders bridge.OrderSubmitter
	store  TradeWriter
	log    *zap.Logger
}

func NewReconciler(orders bridge.OrderSubmitter, store TradeWriter, log *zap.Logger) *Reconciler {
	return &Reconciler{orders: orders, store: store, log: log}
}

// OpenTrade submits the order and records the execution in the ledger.
// Ownership of the account is the caller's concern and is assumed already
// validated.
//
// If the venue refuses the order, no row is written and the taxonomy error
// is returned unchanged. If the venue confirms but the ledger write fails,
// the remote side of the world has already changed irreversibly; that case
// is returned as a reconciliation error carrying the remote order id and
// logged at error level for manual follow-up. No compensating cancellation
// is attempted: cancelling a filled market order is not meaningful.
func (r *Reconciler) OpenTrade(ctx context.Context, account Account, req bridge.OrderRequest) (Trade, error) {
	// Principal traceability lives in the log, not the order comment: venues
	// truncate comments to a few dozen characters, which would swallow the
	// ids and the caller's own annotation with them.
	r.log.Info("submitting market order",
		zap.String("user", account.UserID),
		zap.String("account", account.ID),
		zap.String("symbol", req.Symbol),
		zap.Float64("volume", req.Volume),
		zap.String("side", string(req.Side)),
	)

	res, err := r.orders.SubmitOrder(ctx, req)
	if err != nil {
		return Trade{}, err
	}

	trade := Trade{
		ID:        id.New(),
		AccountID: account.ID,
		Ticket:    strconv.FormatInt(res.Order, 10),
		Symbol:    res.Symbol,
		Volume:    res.Volume,
		Side:      res.Side,
		OpenPrice: res.Price,
		Status:    StatusOpen,
		OpenTime:  time.Now().UTC(),
	}

	if err := r.store.InsertTrade(ctx, trade); err != nil {
		r.log.Error("remote order confirmed but ledger write failed",
			zap.Int64("order", res.Order),
			zap.Int64("deal", res.Deal),
			zap.String("account", account.ID),
			zap.String("symbol", res.Symbol),
			zap.Float64("price", res.Price),
			zap.Float64("volume", res.Volume),
			zap.Error(err),
		)
		return Trade{}, &bridge.Error{
			Kind:    bridge.KindReconciliation,
			Op:      "open trade",
			Msg:     fmt.Sprintf("remote order %d executed but not recorded locally", res.Order),
			Comment: trade.Ticket,
			Err:     err,
		}
	}

	return trade, nil
}
