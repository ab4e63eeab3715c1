package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// classify maps an AWS SDK error onto one of the package error kinds,
// keeping the original message for logging. Anything the API does not name
// explicitly (network failures, 5xx, SDK plumbing) counts as unavailable.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch {
		case code == "ParameterNotFound":
			return fmt.Errorf("%w: %s", ErrNotFound, code)
		case code == "ThrottlingException" || code == "TooManyUpdates" || code == "RequestLimitExceeded":
			return fmt.Errorf("%w: %s", ErrThrottled, code)
		case isAuthCode(code):
			return fmt.Errorf("%w: %s", ErrUnauthorized, code)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnavailable, err)
}

func isAuthCode(code string) bool {
	switch code {
	case "UnrecognizedClientException", "InvalidSignatureException",
		"ExpiredTokenException", "AuthFailure", "UnauthorizedOperation":
		return true
	}
	return strings.HasPrefix(code, "AccessDenied")
}
