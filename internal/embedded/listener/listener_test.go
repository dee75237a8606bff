package listener

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	mu       sync.Mutex
	business []BusinessData
	cancels  []string
}

func (h *recordingHandler) HandleBusinessData(data BusinessData) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.business = append(h.business, data)
}

func (h *recordingHandler) HandleCancel(step string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancels = append(h.cancels, step)
}

func (h *recordingHandler) snapshot() ([]BusinessData, []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]BusinessData(nil), h.business...), append([]string(nil), h.cancels...)
}

func runListener(t *testing.T, policy OriginPolicy) (*Bus, *recordingHandler) {
	t.Helper()

	bus := NewBus()
	handler := &recordingHandler{}
	l := New(bus, policy, handler, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Wait for Run to subscribe; Publish drops messages that arrive before
	// any subscriber exists.
	deadline := time.Now().Add(time.Second)
	for {
		bus.mu.Lock()
		subscribed := len(bus.subs) > 0
		bus.mu.Unlock()
		if subscribed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("listener did not subscribe in time")
		}
		time.Sleep(time.Millisecond)
	}

	return bus, handler
}

func publishAndSettle(bus *Bus, msg Message) {
	bus.Publish(msg)
	time.Sleep(20 * time.Millisecond)
}

func TestFinishEventDispatchesBusinessData(t *testing.T) {
	bus, handler := runListener(t, OriginPolicy{})

	publishAndSettle(bus, Message{
		Origin: "https://business.facebook.com",
		Data:   `{"type":"WA_EMBEDDED_SIGNUP","event":"FINISH","data":{"waba_id":"w1","phone_number_id":"p1","business_id":"b1"}}`,
	})

	business, cancels := handler.snapshot()
	require.Len(t, business, 1)
	require.Equal(t, "w1", business[0].WABAID)
	require.Equal(t, "p1", business[0].PhoneNumberID)
	require.Empty(t, cancels)
}

func TestCancelEventCarriesStep(t *testing.T) {
	bus, handler := runListener(t, OriginPolicy{})

	publishAndSettle(bus, Message{
		Origin: "https://www.facebook.com",
		Data:   `{"type":"WA_EMBEDDED_SIGNUP","event":"CANCEL","data":{"current_step":"business_verification"}}`,
	})

	business, cancels := handler.snapshot()
	require.Empty(t, business)
	require.Equal(t, []string{"business_verification"}, cancels)
}

func TestUntrustedOriginDropped(t *testing.T) {
	bus, handler := runListener(t, OriginPolicy{})

	publishAndSettle(bus, Message{
		Origin: "https://example.com",
		Data:   `{"type":"WA_EMBEDDED_SIGNUP","event":"FINISH","data":{"waba_id":"w1","phone_number_id":"p1"}}`,
	})

	business, cancels := handler.snapshot()
	require.Empty(t, business)
	require.Empty(t, cancels)
}

func TestStrictPolicyRejectsSuffixSpoof(t *testing.T) {
	policy := OriginPolicy{}
	require.False(t, policy.Trusted("https://evilfacebook.com"))
	require.False(t, policy.Trusted("https://notfacebook.com.evil.example"))
	require.True(t, policy.Trusted("https://www.facebook.com"))
	require.True(t, policy.Trusted("https://web.facebook.com"))
}

func TestLegacySuffixPolicyIsWeaker(t *testing.T) {
	// The historical endsWith check admits spoofed hosts. Kept behind a
	// flag for compatibility; this documents exactly how weak it is.
	policy := OriginPolicy{AllowSuffixMatch: true}
	require.True(t, policy.Trusted("https://evilfacebook.com"))
	require.True(t, policy.Trusted("https://www.facebook.com"))
	require.False(t, policy.Trusted("https://notfacebook.com.evil.example"))
}

func TestMalformedPayloadDoesNotCrash(t *testing.T) {
	bus, handler := runListener(t, OriginPolicy{})

	publishAndSettle(bus, Message{Origin: "https://www.facebook.com", Data: "not-json"})
	publishAndSettle(bus, Message{Origin: "https://www.facebook.com", Data: `{"type":"SOMETHING_ELSE"}`})
	publishAndSettle(bus, Message{Origin: "https://www.facebook.com", Data: `{"type":"WA_EMBEDDED_SIGNUP","event":"FUTURE_EVENT"}`})

	business, cancels := handler.snapshot()
	require.Empty(t, business)
	require.Empty(t, cancels)
}

func TestBusReleaseIsIdempotent(t *testing.T) {
	bus := NewBus()
	_, release := bus.Subscribe()
	release()
	release()

	// Publishing after release must not panic on a closed channel.
	bus.Publish(Message{Origin: "https://www.facebook.com", Data: "{}"})
}
