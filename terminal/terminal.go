// Package terminal speaks the trade-terminal gateway's HTTP protocol: session
// initialization, symbol selection, tick lookup, and market order submission.
package terminal

import "fmt"

// Trade server return codes. Only RetcodeDone counts as a completed order;
// everything else, including the partial-fill code, is a refusal.
const (
	RetcodeRequote       = 10004
	RetcodeReject        = 10006
	RetcodeDone          = 10009
	RetcodeDonePartial   = 10010
	RetcodeInvalidVolume = 10014
	RetcodeMarketClosed  = 10018
	RetcodeNoMoney       = 10019
	RetcodePriceOff      = 10021
)

// Trade request field constants, matching the terminal's enums.
const (
	ActionDeal = 1 // immediate execution at market

	OrderTypeBuy  = 0
	OrderTypeSell = 1

	OrderTimeGTC    = 0 // good till cancelled
	OrderFillingIOC = 1 // immediate or cancel
)

// TradeRequest is the order payload sent to the terminal gateway.
type TradeRequest struct {
	Action      int     `json:"action"`
	Symbol      string  `json:"symbol"`
	Volume      float64 `json:"volume"`
	Type        int     `json:"type"`
	Price       float64 `json:"price"`
	Deviation   int     `json:"deviation"`
	Magic       int     `json:"magic"`
	Comment     string  `json:"comment"`
	TypeTime    int     `json:"type_time"`
	TypeFilling int     `json:"type_filling"`
}

// TradeResult is the terminal's acknowledgement of a trade request. Price and
// Volume are the executed values, which may differ from the request within
// the allowed deviation. On refusals the gateway also relays the terminal's
// last-error code and message alongside the retcode.
type TradeResult struct {
	Retcode          int     `json:"retcode"`
	Order            int64   `json:"order"`
	Deal             int64   `json:"deal"`
	Price            float64 `json:"price"`
	Volume           float64 `json:"volume"`
	Comment          string  `json:"comment"`
	LastErrorCode    int     `json:"last_error_code,omitempty"`
	LastErrorMessage string  `json:"last_error_message,omitempty"`
}

// Tick is the wire form of a symbol's latest quote. Time is unix seconds.
type Tick struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Time   int64   `json:"time"`
}

// VenueError is a failure the gateway itself reported, carrying the
// terminal's last-error code and message. Transport-level failures (network,
// garbled body) are returned as plain errors instead.
type VenueError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *VenueError) Error() string {
	return fmt.Sprintf("venue error [%d] %s", e.Code, e.Message)
}
