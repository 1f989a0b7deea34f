package solana

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidAddress indicates an address is not exactly 32 bytes.
	ErrInvalidAddress = errors.New("invalid address length")

	// ErrTooManyAccounts indicates the resolved account set cannot be
	// referenced with single-byte indices.
	ErrTooManyAccounts = errors.New("too many accounts")

	// ErrUnknownSigner indicates a signer is not among the message's
	// required signers.
	ErrUnknownSigner = errors.New("unknown signer")

	// ErrMissingSignature indicates a required signature slot is empty.
	ErrMissingSignature = errors.New("missing required signature")

	// ErrSignatureVerification indicates a stored signature does not verify
	// against the message bytes.
	ErrSignatureVerification = errors.New("signature verification failed")

	// ErrUnsupportedVersion indicates a versioned message whose version
	// number is not 0.
	ErrUnsupportedVersion = errors.New("unsupported message version")

	// ErrTransactionTooLarge indicates the serialized transaction exceeds
	// the network packet size.
	ErrTransactionTooLarge = errors.New("transaction exceeds max size")
)
