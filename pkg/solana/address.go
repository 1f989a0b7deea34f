package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"hash"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32
)

// pdaMarker is the domain separator appended when hashing program derived
// addresses, matching the Solana SDK.
const pdaMarker = "ProgramDerivedAddress"

// programHashCtor is swappable for testing curve rejection.
var programHashCtor func() hash.Hash = sha256.New

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")

	// ErrInvalidPublicKey indicates a derived address landed on the ed25519
	// curve, and therefore could have a private key.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrNoViableBump indicates the entire bump seed space was exhausted
	// without finding an off-curve address.
	ErrNoViableBump = errors.New("unable to find a viable bump seed")
)

// PublicKeyFromString parses the base58 text form of an address.
func PublicKeyFromString(address string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(address)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base58 address")
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, ErrInvalidAddress
	}
	return decoded, nil
}

// MustPublicKeyFromString parses the base58 text form of an address,
// panicking on invalid input. Intended for hardcoded program keys.
func MustPublicKeyFromString(address string) ed25519.PublicKey {
	pub, err := PublicKeyFromString(address)
	if err != nil {
		panic(err)
	}
	return pub
}

// CreateProgramAddress derives an address from a program and a set of seeds.
//
// Program addresses must _not_ lie on the ed25519 curve, which guarantees no
// private key exists for them. If the seeds and program produce a valid
// curve point, ErrInvalidPublicKey is returned and the caller should try a
// different bump seed.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(program) != ed25519.PublicKeySize {
		return nil, ErrInvalidAddress
	}
	if len(seeds) > maxSeeds {
		return nil, ErrTooManySeeds
	}

	h := programHashCtor()
	for _, s := range seeds {
		if len(s) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}

		if _, err := h.Write(s); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	for _, v := range [][]byte{program, []byte(pdaMarker)} {
		if _, err := h.Write(v); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	var pub [ed25519.PublicKeySize]byte
	copy(pub[:], h.Sum(nil))

	// Reject the digest if it decompresses to a valid EdwardsPoint. The
	// edwards25519 types in golang.org/x/crypto are internal, so the check
	// relies on an open source alternative exposing FromBytes.
	var a edwards25519.ExtendedGroupElement
	if a.FromBytes(&pub) {
		return nil, ErrInvalidPublicKey
	}

	return pub[:], nil
}

// FindProgramAddressAndBump walks bump seeds from 255 down to 0, returning
// the first off-curve address together with the bump that produced it.
//
// Derivation is deterministic: the same program and seeds always yield the
// same address and bump. ErrNoViableBump is returned only once the entire
// bump space is exhausted.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	bumpSeed := []byte{math.MaxUint8}
	for {
		pub, err := CreateProgramAddress(program, append(seeds, bumpSeed)...)
		if err == nil {
			return pub, bumpSeed[0], nil
		}
		if err != ErrInvalidPublicKey {
			return nil, 0, err
		}

		if bumpSeed[0] == 0 {
			return nil, 0, ErrNoViableBump
		}
		bumpSeed[0]--
	}
}

// FindProgramAddress is FindProgramAddressAndBump without the bump.
func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	pub, _, err := FindProgramAddressAndBump(program, seeds...)
	return pub, err
}

// CreateWithSeed derives an address from a base address, a UTF-8 seed, and
// an owning program: sha256(base || seed || owner).
//
// Unlike program derived addresses, the result is intentionally not checked
// for curve membership; addresses created this way may have private keys.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L101
func CreateWithSeed(base ed25519.PublicKey, seed string, owner ed25519.PublicKey) (ed25519.PublicKey, error) {
	if len(base) != ed25519.PublicKeySize || len(owner) != ed25519.PublicKeySize {
		return nil, ErrInvalidAddress
	}
	if len(seed) > maxSeedLength {
		return nil, ErrMaxSeedLengthExceeded
	}

	h := sha256.New()
	for _, v := range [][]byte{base, []byte(seed), owner} {
		if _, err := h.Write(v); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	return h.Sum(nil), nil
}
