package httpx

import (
	"context"
	"errors"
	"net"

	"github.com/go-resty/resty/v2"
)

func IsRetryableHTTPStatus(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// RetryCondition plugs the retry policy above into a resty client.
func RetryCondition(resp *resty.Response, err error) bool {
	if err != nil {
		return IsRetryableError(err)
	}
	return resp != nil && IsRetryableHTTPStatus(resp.StatusCode())
}
