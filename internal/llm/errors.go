package llm

import "errors"

// Classified provider errors. Handlers and the CLI branch on these with
// errors.Is instead of matching message text.
var (
	// ErrProviderFailure is the generic classification for a failed provider
	// call: bad credential, network trouble, malformed response.
	ErrProviderFailure = errors.New("provider call failed: check your API key or try again later")

	// ErrConnectionFailed means the Google provider failed on both the primary
	// model and the one documented fallback attempt.
	ErrConnectionFailed = errors.New("google AI connection failed: check your API key or try again later")

	// ErrQuotaExceeded means the provider rejected the call for quota
	// exhaustion. Callers surface a provider-switch suggestion on this one.
	ErrQuotaExceeded = errors.New("provider quota exceeded")

	// ErrUnsupportedProvider means the provider tag is not one of the
	// recognized providers. No network call is made.
	ErrUnsupportedProvider = errors.New("unsupported AI provider")
)
