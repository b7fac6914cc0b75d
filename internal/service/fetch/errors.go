package fetch

// ErrorKind classifies the outcome of one logical fetch. Clients never
// raise for transient/permanent failures; they hand back the kind plus an
// empty payload and let the caller decide.
type ErrorKind int

const (
	// KindNone means the payload is usable.
	KindNone ErrorKind = iota
	// KindTransient covers rate limits, 5xx and network faults. Retried
	// with exponential backoff; exhaustion still reports KindTransient
	// with an empty payload.
	KindTransient
	// KindPermanent covers provider-side rejections and any status that
	// will not change on replay. Never retried.
	KindPermanent
	// KindInvalidInput means the request was malformed locally and never
	// went over the network.
	KindInvalidInput
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// BodyVerdict is what a source-specific payload inspection concludes
// about an HTTP 200 body.
type BodyVerdict int

const (
	// BodyOK: payload is a real result.
	BodyOK BodyVerdict = iota
	// BodyPermanent: the provider rejected the request inside a 200
	// response (explicit error field). Replaying cannot help.
	BodyPermanent
	// BodyRateLimited: a soft rate-limit note inside a 200 response.
	// Treated exactly like HTTP 429.
	BodyRateLimited
)

// BodyCheck inspects a 200 payload for provider-level errors. A nil
// check accepts every 200 body.
type BodyCheck func(body []byte) (BodyVerdict, string)
