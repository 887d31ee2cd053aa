package tuya

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth covers rejected signatures, bad credentials and token acquisition
	// failures. Surfaced to the user as "invalid credentials".
	ErrAuth = errors.New("tuya: authentication failed")

	// ErrCommand is returned when the cloud rejects a device command or the
	// command endpoint answers with a malformed response. Not retried.
	ErrCommand = errors.New("tuya: command rejected")

	// ErrNetwork marks transient transport failures. The caller's next poll
	// retries; nothing retries in-band.
	ErrNetwork = errors.New("tuya: network failure")
)

// APIError is a non-success payload returned by the cloud.
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cloud api error %d: %s", e.Code, e.Msg)
}

// Result codes the cloud uses to reject a signature or token. Any of these on a
// business call means the cached token is stale and worth one refresh-and-retry.
var authRejectCodes = map[int]struct{}{
	1004: {}, // sign invalid
	1010: {}, // token expired
	1011: {}, // token invalid
	1012: {}, // token status invalid
}

func isAuthRejectCode(code int) bool {
	_, ok := authRejectCodes[code]
	return ok
}
