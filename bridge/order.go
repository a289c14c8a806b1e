package bridge

import (
	"context"
	"fmt"

	"github.com/rustyeddy/tradebridge/market"
	"github.com/rustyeddy/tradebridge/terminal"
	"go.uber.org/zap"
)

// Deviation is the allowed slippage, in points, between the quoted price and
// the price the venue executes at.
const Deviation = 20

// Magic tags every order this application sends so its orders are
// distinguishable on the venue from other expert advisors.
const Magic = 202601

// DefaultComment is attached to orders whose caller supplied no annotation.
const DefaultComment = "tradebridge"

// OrderRequest describes a market order to submit.
type OrderRequest struct {
	Symbol  string
	Volume  float64
	Side    market.Side
	Comment string
}

// ExecutionResult is the confirmed outcome of a market order. It exists only
// for acknowledgements with the venue's "done" status; every numeric field
// comes from the acknowledgement, not the request, because the executed
// price and volume may differ within the deviation tolerance.
type ExecutionResult struct {
	Order   int64
	Deal    int64
	Retcode int
	Price   float64
	Volume  float64
	Symbol  string
	Side    market.Side
}

// OrderSubmitter submits market orders to the venue.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, req OrderRequest) (ExecutionResult, error)
}

// OrderService builds, sends, and validates market orders over a session per
// submission.
type OrderService struct {
	sessions *SessionManager
	log      *zap.Logger
}

func NewOrderService(sessions *SessionManager, log *zap.Logger) *OrderService {
	return &OrderService{sessions: sessions, log: log}
}

// SubmitOrder executes a market order. A buy crosses the spread and fills at
// the ask; a sell fills at the bid. Any acknowledgement status other than
// "done" — including partial fills and requotes — is an order rejection.
func (s *OrderService) SubmitOrder(ctx context.Context, req OrderRequest) (ExecutionResult, error) {
	symbol := market.NormalizeSymbol(req.Symbol)
	side, err := market.ParseSide(string(req.Side))
	if err != nil {
		return ExecutionResult{}, &Error{Kind: KindValidation, Op: "submit order", Err: err}
	}
	if req.Volume <= 0 {
		return ExecutionResult{}, &Error{
			Kind: KindValidation,
			Op:   "submit order",
			Msg:  fmt.Sprintf("volume must be positive, got %v", req.Volume),
		}
	}

	var result ExecutionResult
	err = s.sessions.WithSession(ctx, func(ctx context.Context, term Terminal) error {
		if err := term.SymbolSelect(ctx, symbol); err != nil {
			return classify(KindSymbol, "select symbol "+symbol, err)
		}

		tick, err := term.SymbolTick(ctx, symbol)
		if err != nil {
			return classify(KindQuote, "fetch tick for "+symbol, err)
		}

		// Market order crosses the spread: buy at ask, sell at bid.
		price := tick.Ask
		orderType := terminal.OrderTypeBuy
		if side == market.Sell {
			price = tick.Bid
			orderType = terminal.OrderTypeSell
		}

		comment := req.Comment
		if comment == "" {
			comment = DefaultComment
		}

		ack, err := term.OrderSend(ctx, terminal.TradeRequest{
			Action:      terminal.ActionDeal,
			Symbol:      symbol,
			Volume:      req.Volume,
			Type:        orderType,
			Price:       price,
			Deviation:   Deviation,
			Magic:       Magic,
			Comment:     comment,
			TypeTime:    terminal.OrderTimeGTC,
			TypeFilling: terminal.OrderFillingIOC,
		})
		if err != nil {
			return classify(KindTransport, "order send", err)
		}
		if ack == nil {
			return &Error{Kind: KindTransport, Op: "order send", Msg: "venue returned no acknowledgement"}
		}
		if ack.Retcode != terminal.RetcodeDone {
			msg := "order refused by venue"
			if ack.LastErrorCode != 0 || ack.LastErrorMessage != "" {
				msg = fmt.Sprintf("order refused by venue, last error [%d] %s",
					ack.LastErrorCode, ack.LastErrorMessage)
			}
			return &Error{
				Kind:    KindOrderRejected,
				Op:      "order send",
				Code:    ack.Retcode,
				Comment: ack.Comment,
				Msg:     msg,
			}
		}

		result = ExecutionResult{
			Order:   ack.Order,
			Deal:    ack.Deal,
			Retcode: ack.Retcode,
			Price:   ack.Price,
			Volume:  ack.Volume,
			Symbol:  symbol,
			Side:    side,
		}
		return nil
	})
	if err != nil {
		return ExecutionResult{}, err
	}

	s.log.Info("order executed",
		zap.Int64("order", result.Order),
		zap.Int64("deal", result.Deal),
		zap.String("symbol", result.Symbol),
		zap.String("side", string(result.Side)),
		zap.Float64("price", result.Price),
		zap.Float64("volume", result.Volume),
	)

	return result, nil
}
