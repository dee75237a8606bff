// Package listener consumes cross-window messages from the provider's
// signup popup and dispatches typed lifecycle events. Unrelated traffic on
// the same channel is expected and must never crash the loop.
package listener

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// EnvelopeType is the discriminant tag of signup messages.
const EnvelopeType = "WA_EMBEDDED_SIGNUP"

// Finish event names the popup may deliver. All three carry business data.
const (
	EventFinish           = "FINISH"
	EventFinishOnlyWABA   = "FINISH_ONLY_WABA"
	EventFinishOnboarding = "FINISH_WHATSAPP_BUSINESS_APP_ONBOARDING"
	EventCancel           = "CANCEL"
)

// Message is one raw cross-window message: its sender origin and string body.
type Message struct {
	Origin string
	Data   string
}

// Source delivers cross-window messages. Subscribe returns a receive channel
// and a release function; release must be safe to call more than once.
type Source interface {
	Subscribe() (<-chan Message, func())
}

// BusinessData is the account payload carried by finish events.
type BusinessData struct {
	WABAID        string `json:"waba_id"`
	PhoneNumberID string `json:"phone_number_id"`
	BusinessID    string `json:"business_id,omitempty"`
	CurrentStep   string `json:"current_step,omitempty"`
}

// Handler receives the two meaningful signup outcomes.
type Handler interface {
	HandleBusinessData(data BusinessData)
	HandleCancel(step string)
}

type envelope struct {
	Type  string       `json:"type"`
	Event string       `json:"event"`
	Data  BusinessData `json:"data"`
}

// OriginPolicy decides which sender origins are trusted.
//
// The strict mode compares the full host against a fixed allowlist. The
// legacy suffix mode reproduces the historical endsWith("facebook.com")
// check, which also admits hosts like evilfacebook.com; it exists only for
// compatibility and should stay off.
type OriginPolicy struct {
	AllowSuffixMatch bool
}

var trustedHosts = map[string]struct{}{
	"www.facebook.com":      {},
	"web.facebook.com":      {},
	"business.facebook.com": {},
}

const legacySuffix = "facebook.com"

func (p OriginPolicy) Trusted(origin string) bool {
	if p.AllowSuffixMatch {
		return strings.HasSuffix(origin, legacySuffix)
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "" {
		// Bare host without a scheme.
		host = strings.TrimSpace(origin)
	}
	_, ok := trustedHosts[host]
	return ok
}

// Listener filters and parses signup messages for the lifetime of Run.
type Listener struct {
	source  Source
	policy  OriginPolicy
	handler Handler
	log     *zap.Logger
}

func New(source Source, policy OriginPolicy, handler Handler, log *zap.Logger) *Listener {
	return &Listener{
		source:  source,
		policy:  policy,
		handler: handler,
		log:     log.Named("embedded.listener"),
	}
}

// Run subscribes and processes messages until ctx is cancelled. The
// subscription is held for the whole lifetime, not per popup attempt; the
// popup may deliver its message after the login callback already fired.
func (l *Listener) Run(ctx context.Context) {
	messages, release := l.source.Subscribe()
	defer release()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			l.dispatch(msg)
		}
	}
}

func (l *Listener) dispatch(msg Message) {
	if !l.policy.Trusted(msg.Origin) {
		return
	}

	var env envelope
	if err := json.Unmarshal([]byte(msg.Data), &env); err != nil {
		l.log.Debug("dropped unparseable message", zap.String("origin", msg.Origin))
		return
	}
	if env.Type != EnvelopeType {
		return
	}

	switch env.Event {
	case EventFinish, EventFinishOnlyWABA, EventFinishOnboarding:
		l.log.Info("signup finish event",
			zap.String("event", env.Event),
			zap.String("waba_id", env.Data.WABAID),
		)
		l.handler.HandleBusinessData(env.Data)
	case EventCancel:
		l.log.Info("signup cancelled", zap.String("current_step", env.Data.CurrentStep))
		l.handler.HandleCancel(env.Data.CurrentStep)
	default:
		// Unknown events are forward compatible noise.
	}
}
