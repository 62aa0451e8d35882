// Package session owns the active conversation and the session list, and
// reconciles optimistic local updates against the remote store.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/zeempo/zeempo-go/pkg/core"
	"github.com/zeempo/zeempo-go/pkg/core/types"
)

// Phase is the lifecycle of the active session.
type Phase int

const (
	// PhaseNew is a conversation with no server identity yet.
	PhaseNew Phase = iota
	// PhasePersisting is set once the first translation response arrives.
	PhasePersisting
	// PhasePersisted is set once the server has assigned a session id.
	PhasePersisted
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseNew:
		return "NEW"
	case PhasePersisting:
		return "PERSISTING"
	case PhasePersisted:
		return "PERSISTED"
	default:
		return "UNKNOWN"
	}
}

// RemoteStore is the slice of the backend the orchestrator drives.
type RemoteStore interface {
	// Translate sends one user turn and returns the assistant reply plus
	// the session id the server filed it under.
	Translate(ctx context.Context, message, language, sessionID string) (reply, newSessionID string, err error)
	ListSessions(ctx context.Context) ([]types.SessionSummary, error)
	History(ctx context.Context, id string) ([]types.Message, error)
	DeleteSession(ctx context.Context, id string) error
}

// Authorizer reports whether a credential is currently held. Implemented
// by the auth controller.
type Authorizer interface {
	Authenticated() bool
}

// DraftStore persists the pre-auth draft buffer.
type DraftStore interface {
	Draft(ctx context.Context) (string, error)
	SetDraft(ctx context.Context, text string) error
	ClearDraft(ctx context.Context) error
}

// SendOptions qualifies a SendMessage call.
type SendOptions struct {
	// VoiceOrigin marks a message that came from speech capture; the
	// assistant reply is then forwarded to the playback sink.
	VoiceOrigin bool
}

// Orchestrator owns the active session and the session list.
type Orchestrator struct {
	store  RemoteStore
	authz  Authorizer
	drafts DraftStore
	logger *slog.Logger

	// playback receives assistant text for voice-origin sends.
	playback func(text string)
	// onChange is notified after every observable state mutation.
	onChange func()

	mu           sync.Mutex
	active       *types.Session
	phase        Phase
	summaries    []types.SessionSummary
	lastErr      error
	sendInFlight bool
	language     string

	// Monotonic request tokens for stale-response rejection.
	loadSeq atomic.Uint64
	listSeq atomic.Uint64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDraftStore persists the pre-auth draft buffer in the given store.
func WithDraftStore(store DraftStore) Option {
	return func(o *Orchestrator) { o.drafts = store }
}

// WithLogger sets the orchestrator logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithLanguage sets the target translation language.
func WithLanguage(language string) Option {
	return func(o *Orchestrator) { o.language = language }
}

// New creates an orchestrator in the NEW phase.
func New(store RemoteStore, authz Authorizer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		authz:    authz,
		logger:   slog.Default(),
		language: "pidgin",
		phase:    PhaseNew,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetPlaybackSink registers the consumer of voice-origin assistant text.
// The modality coordinator installs itself here.
func (o *Orchestrator) SetPlaybackSink(fn func(text string)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.playback = fn
}

// SetOnChange registers a state-change notifier for the presentation
// layer.
func (o *Orchestrator) SetOnChange(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onChange = fn
}

// SetLanguage switches the target translation language.
func (o *Orchestrator) SetLanguage(language string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.language = language
}

// StartNewSession discards the active session reference. A persisted
// previous session stays in the session list; nothing is lost.
func (o *Orchestrator) StartNewSession() {
	o.mu.Lock()
	o.active = nil
	o.phase = PhaseNew
	o.lastErr = nil
	o.mu.Unlock()
	o.notify()
}

// Clear resets all locally visible conversation state. Wired as the auth
// controller's logout hook; performs no server calls.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	o.active = nil
	o.phase = PhaseNew
	o.summaries = nil
	o.lastErr = nil
	o.mu.Unlock()
	o.notify()
}

// SendMessage appends the user message optimistically, sends it, and
// appends the assistant reply.
//
// Empty text is a programmer error and returns a validation error without
// touching any state. Unauthenticated calls are rejected with
// auth_required after preserving the typed text in the draft buffer. At
// most one send per session may be in flight; a concurrent call is
// rejected, not queued.
//
// Invariant: once appended, the user message is never removed. A failed
// send marks it failed and keeps it visible; manual retry may duplicate.
func (o *Orchestrator) SendMessage(ctx context.Context, text string, opts SendOptions) (*types.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, core.NewValidationError("message text must not be empty")
	}

	if !o.authz.Authenticated() {
		o.bufferDraft(ctx, text)
		return nil, o.fail(core.NewAuthRequiredError("sign in to send messages"))
	}

	o.mu.Lock()
	if o.sendInFlight {
		o.mu.Unlock()
		return nil, core.NewValidationError("another send is already in flight")
	}
	o.sendInFlight = true

	if o.active == nil {
		o.active = &types.Session{Title: types.DeriveTitle(text)}
	}
	userMsg := types.Message{
		LocalID:   uuid.NewString(),
		Role:      types.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
		Language:  o.language,
		Pending:   true,
	}
	o.active.Messages = append(o.active.Messages, userMsg)
	language := o.language
	sessionID := o.active.ID
	localID := userMsg.LocalID
	playback := o.playback
	o.mu.Unlock()
	o.notify()

	reply, newID, err := o.store.Translate(ctx, text, language, sessionID)

	o.mu.Lock()
	o.sendInFlight = false
	if err != nil {
		o.markDelivery(localID, false)
		o.lastErr = err
		o.mu.Unlock()
		o.notify()
		return nil, err
	}

	o.markDelivery(localID, true)
	assistant := types.Message{
		LocalID:   uuid.NewString(),
		Role:      types.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now(),
		Language:  language,
	}
	// LoadSession or StartNewSession may have replaced the active session
	// while the request was in flight; append only when it is still the
	// same conversation.
	if o.active != nil && o.active.ID == sessionID {
		o.active.Messages = append(o.active.Messages, assistant)
		o.active.UpdatedAt = assistant.Timestamp
		if o.phase == PhaseNew {
			o.phase = PhasePersisting
		}
		if newID != "" {
			o.active.ID = newID
			o.phase = PhasePersisted
		}
	}
	o.lastErr = nil
	o.mu.Unlock()
	o.notify()

	o.clearDraft(ctx)

	if err := o.RefreshSessionList(ctx); err != nil {
		// The send itself succeeded; a stale list is tolerable.
		o.logger.Warn("session list refresh after send failed", "err", err)
	}

	if opts.VoiceOrigin && playback != nil {
		playback(reply)
	}
	return &assistant, nil
}

// LoadSession fetches the full history for id and replaces the active
// session wholesale. When loads race, the last initiated call wins:
// responses carrying a superseded request token are discarded.
func (o *Orchestrator) LoadSession(ctx context.Context, id string) error {
	if !o.authz.Authenticated() {
		return o.fail(core.NewAuthRequiredError("sign in to open conversations"))
	}
	seq := o.loadSeq.Add(1)

	messages, err := o.store.History(ctx, id)

	o.mu.Lock()
	if seq != o.loadSeq.Load() {
		// A newer load was initiated; this response is stale.
		o.mu.Unlock()
		return nil
	}
	if err != nil {
		o.lastErr = err
		o.mu.Unlock()
		o.notify()
		return err
	}

	title := o.titleFor(id, messages)
	o.active = &types.Session{
		ID:       id,
		Title:    title,
		Messages: messages,
	}
	if len(messages) > 0 {
		o.active.UpdatedAt = messages[len(messages)-1].Timestamp
	}
	o.phase = PhasePersisted
	o.lastErr = nil
	o.mu.Unlock()
	o.notify()
	return nil
}

// DeleteSession removes a session remotely and locally. Deleting the
// active session starts a new one.
func (o *Orchestrator) DeleteSession(ctx context.Context, id string) error {
	if !o.authz.Authenticated() {
		return o.fail(core.NewAuthRequiredError("sign in to delete conversations"))
	}
	if err := o.store.DeleteSession(ctx, id); err != nil {
		o.mu.Lock()
		o.lastErr = err
		o.mu.Unlock()
		o.notify()
		return err
	}

	o.mu.Lock()
	kept := o.summaries[:0]
	for _, s := range o.summaries {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	o.summaries = kept
	wasActive := o.active != nil && o.active.ID == id
	o.mu.Unlock()

	if wasActive {
		o.StartNewSession()
	} else {
		o.notify()
	}
	return nil
}

// RefreshSessionList replaces the summary projection wholesale; the
// server is authoritative for ordering and titles. Stale responses are
// discarded by request token.
func (o *Orchestrator) RefreshSessionList(ctx context.Context) error {
	if !o.authz.Authenticated() {
		return o.fail(core.NewAuthRequiredError("sign in to list conversations"))
	}
	seq := o.listSeq.Add(1)

	summaries, err := o.store.ListSessions(ctx)

	o.mu.Lock()
	if seq != o.listSeq.Load() {
		o.mu.Unlock()
		return nil
	}
	if err != nil {
		o.lastErr = err
		o.mu.Unlock()
		o.notify()
		return err
	}
	o.summaries = summaries
	o.mu.Unlock()
	o.notify()
	return nil
}

// ActiveSession returns a copy of the active session, or nil.
func (o *Orchestrator) ActiveSession() *types.Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active.Clone()
}

// Summaries returns a copy of the session list projection.
func (o *Orchestrator) Summaries() []types.SessionSummary {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]types.SessionSummary, len(o.summaries))
	copy(out, o.summaries)
	return out
}

// Phase returns the active session lifecycle phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// LastError returns the current error slot.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// ClearError dismisses the current error.
func (o *Orchestrator) ClearError() {
	o.mu.Lock()
	o.lastErr = nil
	o.mu.Unlock()
	o.notify()
}

// Draft returns the preserved pre-auth draft text, if any.
func (o *Orchestrator) Draft(ctx context.Context) string {
	if o.drafts == nil {
		return ""
	}
	text, err := o.drafts.Draft(ctx)
	if err != nil {
		o.logger.Error("read draft buffer", "err", err)
		return ""
	}
	return text
}

func (o *Orchestrator) bufferDraft(ctx context.Context, text string) {
	if o.drafts == nil {
		return
	}
	if err := o.drafts.SetDraft(ctx, text); err != nil {
		o.logger.Error("persist draft buffer", "err", err)
	}
}

func (o *Orchestrator) clearDraft(ctx context.Context) {
	if o.drafts == nil {
		return
	}
	if err := o.drafts.ClearDraft(ctx); err != nil {
		o.logger.Error("clear draft buffer", "err", err)
	}
}

// markDelivery resolves the Pending flag of an optimistic message.
// Callers hold o.mu.
func (o *Orchestrator) markDelivery(localID string, delivered bool) {
	if o.active == nil {
		return
	}
	for i := range o.active.Messages {
		if o.active.Messages[i].LocalID == localID {
			o.active.Messages[i].Pending = false
			o.active.Messages[i].Failed = !delivered
			return
		}
	}
}

// titleFor resolves a session title from the known summaries, falling
// back to deriving it from the first user message. Callers hold o.mu.
func (o *Orchestrator) titleFor(id string, messages []types.Message) string {
	for _, s := range o.summaries {
		if s.ID == id {
			return s.Title
		}
	}
	for _, m := range messages {
		if m.Role == types.RoleUser {
			return types.DeriveTitle(m.Content)
		}
	}
	return types.DeriveTitle("")
}

func (o *Orchestrator) fail(err error) error {
	o.mu.Lock()
	o.lastErr = err
	o.mu.Unlock()
	return err
}

func (o *Orchestrator) notify() {
	o.mu.Lock()
	fn := o.onChange
	o.mu.Unlock()
	if fn != nil {
		fn()
	}
}
