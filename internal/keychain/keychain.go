// Package keychain resolves the versioned secret history into one current
// value per logical name and pushes those values to a remote secret store.
//
// A Session owns the history, its derived keychain, the omit list and the
// attached remote for its whole lifetime. It is not safe for concurrent use.
package keychain

import (
	"context"
	"fmt"
	"sort"
	"time"

	kerrors "github.com/semmy-space/keyver/internal/errors"
	"github.com/semmy-space/keyver/internal/history"
	"github.com/semmy-space/keyver/internal/logging"
	"github.com/semmy-space/keyver/internal/versioning"
)

// Remote is the part of the sync capability a Session drives.
// The remote encrypts values itself before sending them.
type Remote interface {
	ValidateCredentials(ctx context.Context) (bool, error)
	UpsertSecret(ctx context.Context, name, value string) error
}

// Transition describes what NewSecret did to a logical name.
type Transition int

const (
	// Unchanged means the value matched the latest version; nothing was written.
	Unchanged Transition = iota
	// Created means the name had no history before.
	Created
	// Updated means a new version was appended for an existing name.
	Updated
)

func (t Transition) String() string {
	switch t {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Session holds the history store and its keychain projection.
type Session struct {
	store    *history.Store
	keychain map[string]string
	omit     OmitList
	log      logging.Logger

	remote      Remote
	remoteValid bool
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	storeOpts []history.Option
	omit      OmitList
	log       logging.Logger
	logSet    bool
}

// WithBackend replaces the dotenv persistence backend.
func WithBackend(b history.Backend) Option {
	return func(o *sessionOptions) { o.storeOpts = append(o.storeOpts, history.WithBackend(b)) }
}

// WithClock replaces the clock used to stamp versions.
func WithClock(now func() time.Time) Option {
	return func(o *sessionOptions) { o.storeOpts = append(o.storeOpts, history.WithClock(now)) }
}

// WithOmitList sets the names excluded from exports.
func WithOmitList(omit OmitList) Option {
	return func(o *sessionOptions) { o.omit = omit }
}

// WithLogger sets the logger used for per-item confirmations.
func WithLogger(l logging.Logger) Option {
	return func(o *sessionOptions) {
		o.log = l
		o.logSet = true
	}
}

// Open loads the full history from path and derives the keychain.
func Open(path string, opts ...Option) (*Session, error) {
	o := sessionOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.logSet {
		o.log = logging.Discard()
	}
	if o.omit == nil {
		o.omit = NewOmitList()
	}

	s := &Session{
		store: history.New(path, o.storeOpts...),
		omit:  o.omit,
		log:   o.log,
	}
	if _, err := s.store.Load(); err != nil {
		return nil, err
	}
	s.rederiveAll()
	s.log.Debugf("Loaded %d versions for %d secrets from %s", s.store.Len(), len(s.keychain), path)
	return s, nil
}

// AttachRemote sets the remote used by exports and validates its credentials
// once. Invalid credentials are remembered, not returned as an error.
func (s *Session) AttachRemote(ctx context.Context, r Remote) error {
	s.remote = r
	s.remoteValid = false

	valid, err := r.ValidateCredentials(ctx)
	if err != nil {
		return err
	}
	s.remoteValid = valid
	if !valid {
		s.log.Warnf("Remote credentials are invalid; exports will be skipped")
	}
	return nil
}

// Omit returns the session's omit list. Changes apply to later exports.
func (s *Session) Omit() OmitList {
	return s.omit
}

// Keychain returns a copy of the current name -> value projection.
func (s *Session) Keychain() map[string]string {
	out := make(map[string]string, len(s.keychain))
	for k, v := range s.keychain {
		out[k] = v
	}
	return out
}

// History returns a copy of every stored version.
func (s *Session) History() map[string]string {
	return s.store.Snapshot()
}

// Store exposes the underlying history for read-only queries.
func (s *Session) Store() *history.Store {
	return s.store
}

// Names returns the logical names in the keychain, sorted.
func (s *Session) Names() []string {
	names := make([]string, 0, len(s.keychain))
	for n := range s.keychain {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get returns the current value of name.
func (s *Session) Get(name string) (string, error) {
	v, ok := s.keychain[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", kerrors.ErrSecretNotFound, name)
	}
	return v, nil
}

// NewSecret records value as the current version of name.
// Repeating the latest value is a no-op. After any append the keychain entry
// is re-derived from history, so it never lags behind the log.
func (s *Session) NewSecret(name string, value any) (Transition, error) {
	if err := versioning.ValidateName(name); err != nil {
		return Unchanged, err
	}
	str, err := versioning.Stringify(value)
	if err != nil {
		return Unchanged, err
	}

	transition := Created
	if _, ok := s.keychain[name]; ok {
		if _, latest, found := s.store.LatestVersion(name); found && latest == str {
			s.log.Successf("Secret %s already exists and the value is the most recent", name)
			return Unchanged, nil
		}
		transition = Updated
	}

	key, err := s.store.Append(name, str)
	if err != nil {
		return Unchanged, err
	}
	s.rederive(name)

	s.log.Debugf("Appended %s", key)
	s.log.Successf("Secret %s %s", name, transition)
	return transition, nil
}

// Reconcile merges external edits of the backing file into memory and
// rebuilds the whole keychain.
func (s *Session) Reconcile() error {
	if _, err := s.store.ReconcileWithBacking(); err != nil {
		return err
	}
	s.rederiveAll()
	s.log.Successf("Reconciled %d versions with %s", s.store.Len(), s.store.Path())
	return nil
}

func (s *Session) rederive(name string) {
	if _, v, ok := s.store.LatestVersion(name); ok {
		s.keychain[name] = v
		return
	}
	delete(s.keychain, name)
}

func (s *Session) rederiveAll() {
	s.keychain = make(map[string]string)
	for _, name := range s.store.LogicalNames() {
		s.rederive(name)
	}
}
