package fetch

import (
	"errors"
	"io/fs"
	"net/http"
	"os"

	"github.com/adamwoolhether/fetchguard/client"
	"github.com/adamwoolhether/fetchguard/guard"
	"github.com/adamwoolhether/fetchguard/inspect"
)

// classify maps an error from the client stack onto an ErrorKind.
// Anything unrecognized is treated as a transient network failure.
func classify(err error) ErrorKind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}

	if errors.Is(err, inspect.ErrCorruptImage) {
		return CorruptImage
	}

	if errors.Is(err, client.ErrTooLarge) {
		return FileTooLarge
	}

	var statusErr *client.UnexpectedStatusError
	if errors.As(err, &statusErr) {
		if retryableStatus(statusErr.StatusCode) {
			return ServerError
		}
		return UnexpectedStatus
	}

	if errors.Is(err, guard.ErrBlockedRedirect) {
		return InvalidURL
	}

	var pathErr *fs.PathError
	var linkErr *os.LinkError
	if errors.As(err, &pathErr) || errors.As(err, &linkErr) {
		return IOError
	}

	return NetworkError
}

// retryableStatus reports statuses a later attempt may not see again.
func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
}
