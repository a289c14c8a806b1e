package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rustyeddy/tradebridge/bridge"
	"github.com/rustyeddy/tradebridge/ledger"
	"github.com/rustyeddy/tradebridge/market"
)

const testJWTSecret = "test-secret"

type stubQuoter struct {
	tick market.Tick
	err  error
}

func (q stubQuoter) GetQuote(ctx context.Context, symbol string) (market.Tick, error) {
	if q.err != nil {
		return market.Tick{}, q.err
	}
	return q.tick, nil
}

type stubOpener struct {
	trade ledger.Trade
	err   error
}

func (o stubOpener) OpenTrade(ctx context.Context, account ledger.Account, req bridge.OrderRequest) (ledger.Trade, error) {
	if o.err != nil {
		return ledger.Trade{}, o.err
	}
	return o.trade, nil
}

type stubStore struct {
	user       ledger.User
	account    ledger.Account
	balanceSet decimal.Decimal
}

func (s *stubStore) UserByEmail(ctx context.Context, email string) (ledger.User, error) {
	if email != s.user.Email {
		return ledger.User{}, ledger.ErrNotFound
	}
	return s.user, nil
}

func (s *stubStore) AccountByID(ctx context.Context, accountID string) (ledger.Account, error) {
	if accountID != s.account.ID {
		return ledger.Account{}, ledger.ErrNotFound
	}
	return s.account, nil
}

func (s *stubStore) AccountOwnedBy(ctx context.Context, accountID, userID string) (ledger.Account, error) {
	if accountID != s.account.ID || userID != s.account.UserID {
		return ledger.Account{}, ledger.ErrNotFound
	}
	return s.account, nil
}

func (s *stubStore) SetBalance(ctx context.Context, accountID string, balance decimal.Decimal) error {
	if accountID != s.account.ID {
		return ledger.ErrNotFound
	}
	s.balanceSet = balance
	return nil
}

func defaultStore() *stubStore {
	return &stubStore{
		user:    ledger.User{ID: "user-1", Email: "trader@example.com"},
		account: ledger.Account{ID: "acct-1", UserID: "user-1"},
	}
}

func signToken(t *testing.T, email string, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": email,
		"exp": time.Now().Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func newTestServer(t *testing.T, quotes bridge.Quoter, trades TradeOpener, store Store) *Server {
	t.Helper()
	return NewServer(quotes, trades, store, zap.NewNop(), testJWTSecret, "admin-secret")
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rdr *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(buf)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, stubQuoter{}, stubOpener{}, defaultStore())
	w := doJSON(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPriceRequiresToken(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, stubQuoter{}, stubOpener{}, defaultStore())

	w := doJSON(t, s, http.MethodGet, "/price/EURUSD", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}

func TestPriceRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, stubQuoter{}, stubOpener{}, defaultStore())
	token := signToken(t, "trader@example.com", -time.Minute)

	w := doJSON(t, s, http.MethodGet, "/price/EURUSD", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPriceRejectsUnknownSubject(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, stubQuoter{}, stubOpener{}, defaultStore())
	token := signToken(t, "stranger@example.com", time.Hour)

	w := doJSON(t, s, http.MethodGet, "/price/EURUSD", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPriceReturnsTick(t *testing.T) {
	t.Parallel()

	q := stubQuoter{tick: market.Tick{
		Symbol: "EURUSD",
		Bid:    1.1000,
		Ask:    1.1002,
		Time:   time.Unix(1700000000, 0).UTC(),
	}}
	s := newTestServer(t, q, stubOpener{}, defaultStore())
	token := signToken(t, "trader@example.com", time.Hour)

	w := doJSON(t, s, http.MethodGet, "/price/eurusd", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp priceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "EURUSD", resp.Symbol)
	assert.Equal(t, 1.1000, resp.Bid)
	assert.Equal(t, 1.1002, resp.Ask)
	assert.Equal(t, int64(1700000000), resp.Time)
}

func TestPriceUpstreamFailure(t *testing.T) {
	t.Parallel()

	q := stubQuoter{err: &bridge.Error{Kind: bridge.KindSymbol, Code: 4301, Comment: "unknown symbol"}}
	s := newTestServer(t, q, stubOpener{}, defaultStore())
	token := signToken(t, "trader@example.com", time.Hour)

	w := doJSON(t, s, http.MethodGet, "/price/ZZZ", token, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp apiError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "upstream_execution_failure", resp.Code)
}

func TestOpenTradeSuccess(t *testing.T) {
	t.Parallel()

	opener := stubOpener{trade: ledger.Trade{
		ID:        "01TRADE",
		AccountID: "acct-1",
		Ticket:    "555",
		Symbol:    "EURUSD",
		Volume:    0.1,
		Side:      market.Buy,
		OpenPrice: 1.1002,
		Status:    ledger.StatusOpen,
	}}
	s := newTestServer(t, stubQuoter{}, opener, defaultStore())
	token := signToken(t, "trader@example.com", time.Hour)

	w := doJSON(t, s, http.MethodPost, "/trade/open", token, payload{
		"account_id": "acct-1", "symbol": "EURUSD", "volume": 0.1, "side": "buy",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp openTradeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "555", resp.Ticket)
	assert.Equal(t, "open", resp.Status)
	assert.Equal(t, 1.1002, resp.OpenPrice)
}

func TestOpenTradeUnownedAccount(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, stubQuoter{}, stubOpener{}, defaultStore())
	token := signToken(t, "trader@example.com", time.Hour)

	w := doJSON(t, s, http.MethodPost, "/trade/open", token, payload{
		"account_id": "someone-elses", "symbol": "EURUSD", "volume": 0.1, "side": "buy",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOpenTradeRejectedMapsToUpstreamFailure(t *testing.T) {
	t.Parallel()

	opener := stubOpener{err: &bridge.Error{Kind: bridge.KindOrderRejected, Code: 10004, Comment: "requote"}}
	s := newTestServer(t, stubQuoter{}, opener, defaultStore())
	token := signToken(t, "trader@example.com", time.Hour)

	w := doJSON(t, s, http.MethodPost, "/trade/open", token, payload{
		"account_id": "acct-1", "symbol": "EURUSD", "volume": 0.1, "side": "buy",
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "requote")
}

func TestOpenTradeReconciliationFailure(t *testing.T) {
	t.Parallel()

	opener := stubOpener{err: &bridge.Error{
		Kind:    bridge.KindReconciliation,
		Comment: "555",
		Msg:     "remote order 555 executed but not recorded locally",
	}}
	s := newTestServer(t, stubQuoter{}, opener, defaultStore())
	token := signToken(t, "trader@example.com", time.Hour)

	w := doJSON(t, s, http.MethodPost, "/trade/open", token, payload{
		"account_id": "acct-1", "symbol": "EURUSD", "volume": 0.1, "side": "buy",
	})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "reconciliation_failure", resp["code"])
	assert.Equal(t, "555", resp["ticket"])
}

func TestOpenTradeBindingRejectsNonPositiveVolume(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, stubQuoter{}, stubOpener{}, defaultStore())
	token := signToken(t, "trader@example.com", time.Hour)

	w := doJSON(t, s, http.MethodPost, "/trade/open", token, payload{
		"account_id": "acct-1", "symbol": "EURUSD", "volume": -1, "side": "buy",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdjustBalance(t *testing.T) {
	t.Parallel()

	store := defaultStore()
	s := newTestServer(t, stubQuoter{}, stubOpener{}, store)

	req := payload{"account_id": "acct-1", "balance": "250.75"}

	w := doJSON(t, s, http.MethodPost, "/admin/adjust-balance", "", req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	r := httptest.NewRequest(http.MethodPost, "/admin/adjust-balance", bytes.NewReader(mustJSON(t, req)))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("X-Admin-Secret", "admin-secret")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "250.75", store.balanceSet.StringFixed(2))
}

func TestAdjustBalanceUnconfiguredSecret(t *testing.T) {
	t.Parallel()

	s := NewServer(stubQuoter{}, stubOpener{}, defaultStore(), zap.NewNop(), testJWTSecret, "")
	w := doJSON(t, s, http.MethodPost, "/admin/adjust-balance", "", payload{"account_id": "acct-1", "balance": "1.00"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type payload = map[string]any

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
