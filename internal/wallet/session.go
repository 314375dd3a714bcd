// Package wallet manages the caller's wallet session. The connector is an
// injected capability rather than an ambient singleton, so tests and
// server-side deployments can supply their own.
package wallet

import (
	"context"
	"errors"
	"sync"

	"stablemint/internal/solana"
)

// ErrNotConnected is returned by operations that need an active session.
var ErrNotConnected = errors.New("wallet: not connected")

// Signer signs an arbitrary message with the wallet's key.
type Signer interface {
	PublicKey() solana.PublicKey
	SignMessage(message []byte) ([]byte, error)
}

// Connector establishes wallet sessions. Implementations wrap a browser
// extension bridge, a remote signer, or a local keypair.
type Connector interface {
	Connect(ctx context.Context) (Signer, error)
	Disconnect(ctx context.Context) error
}

// Event describes a session state change delivered to OnChange callbacks.
type Event struct {
	Connected bool
	Address   solana.PublicKey // zero when disconnected
}

// Session tracks the current wallet connection. Safe for concurrent use.
type Session struct {
	connector Connector

	mu        sync.Mutex
	signer    Signer
	callbacks map[int]func(Event)
	nextID    int
}

// NewSession wraps a connector. The session starts disconnected.
func NewSession(connector Connector) *Session {
	return &Session{
		connector: connector,
		callbacks: make(map[int]func(Event)),
	}
}

// Connect establishes the session and notifies callbacks. Connecting an
// already connected session returns the existing identity.
func (s *Session) Connect(ctx context.Context) (solana.PublicKey, error) {
	s.mu.Lock()
	if s.signer != nil {
		pk := s.signer.PublicKey()
		s.mu.Unlock()
		return pk, nil
	}
	s.mu.Unlock()

	signer, err := s.connector.Connect(ctx)
	if err != nil {
		return solana.PublicKey{}, err
	}

	s.mu.Lock()
	s.signer = signer
	pk := signer.PublicKey()
	cbs := s.snapshotCallbacks()
	s.mu.Unlock()

	notify(cbs, Event{Connected: true, Address: pk})
	return pk, nil
}

// Disconnect tears down the session and notifies callbacks. Disconnecting
// an idle session is a no-op.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	if s.signer == nil {
		s.mu.Unlock()
		return nil
	}
	s.signer = nil
	cbs := s.snapshotCallbacks()
	s.mu.Unlock()

	err := s.connector.Disconnect(ctx)
	notify(cbs, Event{Connected: false})
	return err
}

// Connected reports whether a session is active.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signer != nil
}

// Signer returns the active session's signer.
func (s *Session) Signer() (Signer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signer == nil {
		return nil, ErrNotConnected
	}
	return s.signer, nil
}

// Address returns the connected wallet's public key.
func (s *Session) Address() (solana.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signer == nil {
		return solana.PublicKey{}, ErrNotConnected
	}
	return s.signer.PublicKey(), nil
}

// OnChange registers a callback for session state changes and returns a
// function that unregisters it. Unregistering twice is harmless.
func (s *Session) OnChange(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.callbacks[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.callbacks, id)
		s.mu.Unlock()
	}
}

// snapshotCallbacks is called with mu held.
func (s *Session) snapshotCallbacks() []func(Event) {
	cbs := make([]func(Event), 0, len(s.callbacks))
	for _, fn := range s.callbacks {
		cbs = append(cbs, fn)
	}
	return cbs
}

func notify(cbs []func(Event), e Event) {
	for _, fn := range cbs {
		fn(e)
	}
}

// KeypairSigner signs with a local keypair. Used for tests and
// server-side signing.
type KeypairSigner struct {
	kp *solana.Keypair
}

func NewKeypairSigner(kp *solana.Keypair) *KeypairSigner {
	return &KeypairSigner{kp: kp}
}

func (s *KeypairSigner) PublicKey() solana.PublicKey { return s.kp.PublicKey() }

func (s *KeypairSigner) SignMessage(message []byte) ([]byte, error) {
	return s.kp.Sign(message), nil
}

// KeypairConnector is a Connector over a fixed local keypair.
type KeypairConnector struct {
	signer *KeypairSigner
}

func NewKeypairConnector(kp *solana.Keypair) *KeypairConnector {
	return &KeypairConnector{signer: NewKeypairSigner(kp)}
}

func (c *KeypairConnector) Connect(ctx context.Context) (Signer, error) { return c.signer, nil }

func (c *KeypairConnector) Disconnect(ctx context.Context) error { return nil }
