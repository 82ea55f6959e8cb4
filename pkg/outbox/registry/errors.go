package registry

import "errors"

// permanentError marks failures that redelivery cannot fix.
type permanentError struct{ cause error }

func (e *permanentError) Error() string { return "permanent: " + e.cause.Error() }
func (e *permanentError) Unwrap() error { return e.cause }

// Permanent wraps err so publishers dead-letter it and consumers ack it.
// A nil err stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	var p *permanentError
	if errors.As(err, &p) {
		return err
	}
	return &permanentError{cause: err}
}

// IsPermanent reports whether any error in err's chain was marked Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
