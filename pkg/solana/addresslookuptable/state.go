// Package address_lookup_table provides the on-chain address lookup table
// program: state decoding, table address derivation, and instruction
// builders. Decoded tables feed versioned message compilation as candidate
// lookup tables.
package address_lookup_table

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/amilz/solana-kit/pkg/solana"
	"github.com/amilz/solana-kit/pkg/solana/binary"
)

var (
	ErrInvalidAccountSize = errors.New("invalid address lookup table account size")
	ErrInvalidAccountType = errors.New("invalid account type")
)

const (
	altDiscriminator = 1

	metadataSize = 56
	maxAddresses = 256

	optionSize = 1
)

type AddressLookupTableAccount struct {
	DeactivationSlot           uint64
	LastExtendedSlot           uint64
	LastExtendedSlotStartIndex uint8
	Authority                  ed25519.PublicKey
	Addresses                  []ed25519.PublicKey
}

func (obj *AddressLookupTableAccount) Unmarshal(data []byte) error {
	if len(data) < metadataSize {
		return ErrInvalidAccountSize
	}

	var offset int

	var discriminator uint32
	binary.GetUint32(data[offset:], &discriminator, &offset)
	if discriminator != altDiscriminator {
		return ErrInvalidAccountType
	}

	binary.GetUint64(data[offset:], &obj.DeactivationSlot, &offset)
	binary.GetUint64(data[offset:], &obj.LastExtendedSlot, &offset)
	binary.GetUint8(data[offset:], &obj.LastExtendedSlotStartIndex, &offset)
	binary.GetOptionalKey32(data[offset:], &obj.Authority, &offset, optionSize)

	offset = metadataSize

	addressBufferSize := len(data) - offset
	addressCount := addressBufferSize / ed25519.PublicKeySize
	if addressBufferSize%ed25519.PublicKeySize != 0 {
		return ErrInvalidAccountSize
	} else if addressCount > maxAddresses {
		return ErrInvalidAccountSize
	}

	obj.Addresses = make([]ed25519.PublicKey, addressCount)
	for i := 0; i < addressCount; i++ {
		binary.GetKey32(data[offset:], &obj.Addresses[i], &offset)
	}

	return nil
}

// AsLookupTable pairs the decoded address list with the table's own address
// for use as a compilation candidate.
func (obj *AddressLookupTableAccount) AsLookupTable(table ed25519.PublicKey) solana.AddressLookupTable {
	return solana.AddressLookupTable{
		PublicKey: table,
		Addresses: obj.Addresses,
	}
}

func (obj *AddressLookupTableAccount) String() string {
	addressesString := "{"
	for i, address := range obj.Addresses {
		addressesString += fmt.Sprintf("%d:%s,", i, base58.Encode(address))
	}
	addressesString += "}"

	return fmt.Sprintf(
		"AddressLookupTable{deactivation_slot=%d,last_extended_slot=%d,last_extended_slot_start_index=%d,authority=%s,addresses=%s}",
		obj.DeactivationSlot,
		obj.LastExtendedSlot,
		obj.LastExtendedSlotStartIndex,
		base58.Encode(obj.Authority),
		addressesString,
	)
}
