package bridge

import (
	"context"
	"errors"
	"sync"

	"github.com/rustyeddy/tradebridge/terminal"
	"go.uber.org/zap"
)

// Terminal is the slice of the gateway client the bridge needs. terminal.Client
// satisfies it; tests substitute stubs.
type Terminal interface {
	Initialize(ctx context.Context, login, password, server string) error
	Shutdown(ctx context.Context) error
	SymbolSelect(ctx context.Context, symbol string) error
	SymbolTick(ctx context.Context, symbol string) (terminal.Tick, error)
	OrderSend(ctx context.Context, req terminal.TradeRequest) (*terminal.TradeResult, error)
}

// Credentials identify the account on the remote venue. Immutable for the
// process lifetime.
type Credentials struct {
	Login    string
	Password string
	Server   string
}

// NewCredentials validates that every field is present. Missing fields are a
// configuration error here, at construction, never later at call time.
func NewCredentials(login, password, server string) (Credentials, error) {
	if login == "" || password == "" || server == "" {
		return Credentials{}, &Error{
			Kind: KindConfiguration,
			Msg:  "missing venue credentials: login, password, and server are all required",
		}
	}
	return Credentials{Login: login, Password: password, Server: server}, nil
}

// SessionManager mediates all venue access through an explicit
// connect/operate/disconnect cycle, one session per logical operation. A
// single instance is constructed at startup and shared by reference; it holds
// no hidden global state.
//
// Whether concurrent operations are serialized against the venue is an
// explicit choice: with serialize enabled every WithSession call holds a
// process-wide mutex for its full connect/disconnect span. Disabled,
// overlapping sessions are the venue's concern.
type SessionManager struct {
	creds Credentials
	term  Terminal
	log   *zap.Logger
	mu    *sync.Mutex // nil unless serializing operations
}

func NewSessionManager(creds Credentials, term Terminal, log *zap.Logger, serialize bool) *SessionManager {
	sm := &SessionManager{creds: creds, term: term, log: log}
	if serialize {
		sm.mu = &sync.Mutex{}
	}
	return sm
}

// Connect initializes the remote session.
func (sm *SessionManager) Connect(ctx context.Context) error {
	if err := sm.term.Initialize(ctx, sm.creds.Login, sm.creds.Password, sm.creds.Server); err != nil {
		return sessionErr("initialize", err)
	}
	return nil
}

// Disconnect tears the session down. Idempotent: the gateway treats shutdown
// of an absent session as a no-op, and failures here are logged, not
// propagated, so they can never mask the operation's own error.
func (sm *SessionManager) Disconnect(ctx context.Context) {
	if err := sm.term.Shutdown(ctx); err != nil {
		sm.log.Warn("venue shutdown failed", zap.Error(err))
	}
}

// WithSession runs fn inside a connect/disconnect pair. Disconnect runs on
// every exit path, including panics and fn errors.
func (sm *SessionManager) WithSession(ctx context.Context, fn func(ctx context.Context, term Terminal) error) error {
	if sm.mu != nil {
		sm.mu.Lock()
		defer sm.mu.Unlock()
	}

	if err := sm.Connect(ctx); err != nil {
		return err
	}
	// Teardown must survive the caller's cancellation, or an aborted request
	// leaks the remote session. The client's own timeout still bounds the
	// shutdown call.
	defer sm.Disconnect(context.WithoutCancel(ctx))

	return fn(ctx, sm.term)
}

// sessionErr classifies a connect failure, keeping the venue's own status
// code and message when the gateway reported them.
func sessionErr(op string, err error) *Error {
	var ve *terminal.VenueError
	if errors.As(err, &ve) {
		return &Error{Kind: KindSession, Op: op, Code: ve.Code, Comment: ve.Message, Err: err}
	}
	return &Error{Kind: KindSession, Op: op, Err: err}
}
