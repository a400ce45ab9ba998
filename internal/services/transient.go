package services

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/aws/smithy-go"
	"github.com/sashabaranov/go-openai"
)

var transientAWSCodes = map[string]bool{
	"ThrottlingException":      true,
	"Throttling":               true,
	"TooManyRequestsException": true,
	"LimitExceededException":   true,
	"RequestTimeout":           true,
	"RequestTimeoutException":  true,
	"ServiceUnavailable":       true,
	"InternalServerError":      true,
	"InternalFailure":          true,
	"SlowDown":                 true,
}

// IsTransient reports whether a status fetch error is worth retrying within
// the same poll iteration. Authorisation, validation and not-found errors are
// never transient; neither is cancellation of the caller's context.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		return transientAWSCodes[ae.ErrorCode()]
	}

	var oe *openai.APIError
	if errors.As(err, &oe) {
		return oe.HTTPStatusCode == http.StatusTooManyRequests || oe.HTTPStatusCode >= http.StatusInternalServerError
	}
	var re *openai.RequestError
	if errors.As(err, &re) {
		return re.HTTPStatusCode == http.StatusTooManyRequests || re.HTTPStatusCode >= http.StatusInternalServerError
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}
