package aisession

import "github.com/googleapis/gax-go/v2/apierror"

// unwrapAPIError strips the gax wrapper so callers see the underlying
// transport or status error.
func unwrapAPIError(err error) error {
	if e, ok := err.(*apierror.APIError); ok {
		return e.Unwrap()
	}
	return err
}
