// Package chat implements the render loop: append the user turn, call the
// vendor, append exactly one assistant turn, return to idle.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/llm/provider"
	"github.com/papercomputeco/parley/pkg/utils"
)

// ErrEmptyInput is returned for blank submissions. Nothing is appended.
var ErrEmptyInput = errors.New("empty input")

// ErrorPrefix starts every assistant turn that stands in for a failed call.
const ErrorPrefix = "API request failed: "

// State is the render loop state.
type State int32

const (
	StateIdle State = iota
	StatePending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Session is one user's conversation with one vendor and model.
type Session struct {
	provider provider.Provider
	model    string
	conv     *llm.Conversation
	logger   *slog.Logger
	observer func(llm.Turn)

	// submitMu serializes Submit so a session never has two calls in flight.
	submitMu sync.Mutex
	state    atomic.Int32
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConversation resumes an existing conversation instead of starting empty.
func WithConversation(c *llm.Conversation) Option {
	return func(s *Session) {
		if c != nil {
			s.conv = c
		}
	}
}

// WithTurnObserver registers fn to be called after every appended turn. The
// user turn is observed before the vendor call is issued.
func WithTurnObserver(fn func(llm.Turn)) Option {
	return func(s *Session) {
		s.observer = fn
	}
}

// NewSession creates an idle session with an empty conversation.
func NewSession(p provider.Provider, model string, opts ...Option) *Session {
	s := &Session{
		provider: p,
		model:    model,
		conv:     llm.NewConversation(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit runs one interaction. The user turn is appended before the call; an
// assistant turn (the reply, or an error description) is always appended
// after it. The only error returned is ErrEmptyInput.
func (s *Session) Submit(ctx context.Context, input string) (llm.Turn, error) {
	if strings.TrimSpace(input) == "" {
		return llm.Turn{}, ErrEmptyInput
	}

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	s.append(llm.UserTurn(input))

	s.state.Store(int32(StatePending))
	defer s.state.Store(int32(StateIdle))

	start := time.Now()
	reply, err := s.call(ctx)
	elapsed := time.Since(start)

	var turn llm.Turn
	if err != nil {
		s.logger.Warn("vendor call failed",
			"provider", s.provider.Name(),
			"model", s.model,
			"duration", elapsed,
			"error", err,
		)
		turn = llm.AssistantTurn(ErrorPrefix + err.Error())
	} else {
		s.logger.Debug("vendor call succeeded",
			"provider", s.provider.Name(),
			"model", s.model,
			"duration", elapsed,
			"reply", utils.Truncate(reply, 64),
		)
		turn = llm.AssistantTurn(reply)
	}

	s.append(turn)
	return turn, nil
}

// call isolates the vendor call so a panic inside an adapter becomes an
// ordinary failed call.
func (s *Session) call(ctx context.Context) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			reply = ""
			err = fmt.Errorf("%s adapter panicked: %v", s.provider.Name(), r)
		}
	}()
	return s.provider.Reply(ctx, s.conv.Turns(), s.model)
}

func (s *Session) append(t llm.Turn) {
	s.conv.Append(t)
	if s.observer != nil {
		s.observer(t)
	}
}

// Turns returns a copy of the history. It does not wait for a pending call.
func (s *Session) Turns() []llm.Turn {
	return s.conv.Turns()
}

// State reports whether a vendor call is in flight.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Model returns the model every call is made with.
func (s *Session) Model() string {
	return s.model
}

// Provider returns the vendor name.
func (s *Session) Provider() string {
	return s.provider.Name()
}
