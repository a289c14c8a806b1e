package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/tradebridge/market"
	"github.com/rustyeddy/tradebridge/terminal"
)

// Quoter fetches the current tick for a symbol.
type Quoter interface {
	GetQuote(ctx context.Context, symbol string) (market.Tick, error)
}

// QuoteService fetches a fresh tick per request through its own session.
// Nothing is cached and nothing is retried; a failed attempt is surfaced
// as-is and retry policy belongs to the caller.
type QuoteService struct {
	sessions *SessionManager
}

func NewQuoteService(sessions *SessionManager) *QuoteService {
	return &QuoteService{sessions: sessions}
}

func (s *QuoteService) GetQuote(ctx context.Context, symbol string) (market.Tick, error) {
	symbol = market.NormalizeSymbol(symbol)

	var tick market.Tick
	err := s.sessions.WithSession(ctx, func(ctx context.Context, term Terminal) error {
		if err := term.SymbolSelect(ctx, symbol); err != nil {
			return classify(KindSymbol, "select symbol "+symbol, err)
		}

		raw, err := term.SymbolTick(ctx, symbol)
		if err != nil {
			return classify(KindQuote, "fetch tick for "+symbol, err)
		}

		tick = market.Tick{
			Symbol: symbol,
			Bid:    raw.Bid,
			Ask:    raw.Ask,
			Time:   time.Unix(raw.Time, 0).UTC(),
		}
		return nil
	})
	if err != nil {
		return market.Tick{}, err
	}
	return tick, nil
}

// classify wraps a venue-reported failure with the given kind, preserving
// the venue code and message. Failures that never produced a venue response
// are transport errors regardless of the operation that hit them.
func classify(k Kind, op string, err error) *Error {
	var ve *terminal.VenueError
	if errors.As(err, &ve) {
		return &Error{Kind: k, Op: op, Code: ve.Code, Comment: ve.Message, Err: err}
	}
	return &Error{Kind: KindTransport, Op: op, Err: err}
}
