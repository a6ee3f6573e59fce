// Package telephony places and ends outbound voice calls through the
// telephony vendor's REST API.
package telephony

import "context"

// Dialer places outbound calls and tears them down.
type Dialer interface {
	// PlaceCall dials the given number. When the callee answers, the vendor
	// fetches voice-response markup from answerURL. Returns the vendor call
	// handle.
	PlaceCall(ctx context.Context, to, answerURL string) (callSID string, err error)

	// EndCall completes an in-progress call.
	EndCall(ctx context.Context, callSID string) error
}
