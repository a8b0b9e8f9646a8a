package ipaddr

import "errors"

var (
	// ErrInvalidFormat is returned for malformed address or mask text or bytes.
	ErrInvalidFormat = errors.New("invalid address format")

	// ErrFamilyMismatch is returned when V4 and V6 operands are mixed.
	ErrFamilyMismatch = errors.New("address family mismatch")

	// ErrUnsupportedOperation is returned when an operation has no meaning for
	// the operand's family, such as the broadcast address of a V6 network.
	ErrUnsupportedOperation = errors.New("unsupported operation for address family")

	// ErrInvalidMask is returned by Mask.Validate for empty or non-contiguous masks.
	ErrInvalidMask = errors.New("invalid netmask")
)
