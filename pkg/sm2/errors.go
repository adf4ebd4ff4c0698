package sm2

// These constants are used to identify a specific Error.
const (
	// ErrInvalidScalar is returned when a scalar is zero or not less than the
	// group order, or when a value that must be inverted is zero.
	ErrInvalidScalar = ErrorKind("ErrInvalidScalar")

	// ErrInvalidPoint is returned when an encoded point is malformed or does
	// not satisfy the curve equation.
	ErrInvalidPoint = ErrorKind("ErrInvalidPoint")

	// ErrInvalidPublicKey is returned when the point at infinity, or a point
	// that is not on the curve, is used as a public key.
	ErrInvalidPublicKey = ErrorKind("ErrInvalidPublicKey")

	// ErrInvalidCiphertextLength is returned when a ciphertext is shorter
	// than C1 || C3 plus one byte of payload.
	ErrInvalidCiphertextLength = ErrorKind("ErrInvalidCiphertextLength")

	// ErrRetryWithFreshNonce signals a degenerate nonce (r = 0, r + k = n,
	// s = 0 or an all-zero KDF stream). The operation must be repeated with a
	// new nonce; it is returned to callers only once the bounded retry loop is
	// exhausted or the nonce source repeats itself.
	ErrRetryWithFreshNonce = ErrorKind("ErrRetryWithFreshNonce")

	// ErrIntegrityMismatch is returned when the C3 tag of a ciphertext does not
	// match the decrypted payload.
	ErrIntegrityMismatch = ErrorKind("ErrIntegrityMismatch")

	// ErrDecryptionFailed is returned when the shared point or the derived
	// key stream is degenerate during decryption.
	ErrDecryptionFailed = ErrorKind("ErrDecryptionFailed")

	// ErrEmptyPlaintext is returned when encrypting a zero-length message.
	ErrEmptyPlaintext = ErrorKind("ErrEmptyPlaintext")

	// ErrIdentityTooLong is returned when an identifier's bit length does not
	// fit in the two byte ENTL field of the identity digest.
	ErrIdentityTooLong = ErrorKind("ErrIdentityTooLong")

	// ErrBatchLengthMismatch is returned when the parallel inputs of a batch
	// verification have different lengths.
	ErrBatchLengthMismatch = ErrorKind("ErrBatchLengthMismatch")

	// ErrInvalidSignature is returned when an encoded signature has the wrong
	// length.
	ErrInvalidSignature = ErrorKind("ErrInvalidSignature")

	// ErrUnknownCurve is returned when a curve name is not registered.
	ErrUnknownCurve = ErrorKind("ErrUnknownCurve")

	// ErrUnknownHash is returned when a hash name is not registered.
	ErrUnknownHash = ErrorKind("ErrUnknownHash")
)

// ErrorKind identifies a kind of error.  It has full support for errors.Is and
// errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies an error related to the engine.  It has full support for
// errors.Is and errors.As, so the caller can ascertain the specific reason for
// the error by checking the underlying error.
type Error struct {
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// makeError creates an Error given a set of arguments.
func makeError(kind ErrorKind, desc string) Error {
	return Error{Err: kind, Description: desc}
}
