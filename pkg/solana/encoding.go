package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"

	"github.com/amilz/solana-kit/pkg/solana/shortvec"
)

// versionMask is the high bit of byte 0. Set: bits 0-6 carry a version
// number. Clear: the message is legacy and byte 0 is the header's
// NumSignatures field.
const versionMask = 0x80

func (t Transaction) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	// Signatures
	_, _ = shortvec.EncodeLen(b, len(t.Signatures))
	for _, s := range t.Signatures {
		_, _ = b.Write(s[:])
	}

	// Message
	_, _ = b.Write(t.Message.Marshal())

	return b.Bytes()
}

func (t *Transaction) Unmarshal(b []byte) error {
	buf := bytes.NewBuffer(b)

	sigLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read signature length")
	}

	t.Signatures = make([]Signature, sigLen)
	for i := 0; i < sigLen; i++ {
		if _, err = io.ReadFull(buf, t.Signatures[i][:]); err != nil {
			return errors.Wrapf(err, "failed to read signature at %d", i)
		}
	}

	if err := (&t.Message).Unmarshal(buf.Bytes()); err != nil {
		return err
	}

	// Slot ordering comes from the message's own signer ordering; a parsed
	// signature list of a different size cannot be mapped onto it.
	if sigLen != int(t.Message.Header.NumSignatures) {
		return errors.Errorf("signature count %d does not match required signers %d", sigLen, t.Message.Header.NumSignatures)
	}

	return nil
}

func (m Message) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	if m.version != MessageVersionLegacy {
		_ = b.WriteByte(versionMask | byte(m.version-1))
	}

	// Header
	_ = b.WriteByte(m.Header.NumSignatures)
	_ = b.WriteByte(m.Header.NumReadonlySigned)
	_ = b.WriteByte(m.Header.NumReadOnly)

	// Static accounts
	_, _ = shortvec.EncodeLen(b, len(m.Accounts))
	for _, a := range m.Accounts {
		_, _ = b.Write(a)
	}

	// Lifetime token
	_, _ = b.Write(m.RecentBlockhash[:])

	// Instructions
	_, _ = shortvec.EncodeLen(b, len(m.Instructions))
	for _, i := range m.Instructions {
		_ = b.WriteByte(i.ProgramIndex)

		_, _ = shortvec.EncodeLen(b, len(i.Accounts))
		_, _ = b.Write(i.Accounts)

		_, _ = shortvec.EncodeLen(b, len(i.Data))
		_, _ = b.Write(i.Data)
	}

	if m.version == MessageVersionLegacy {
		return b.Bytes()
	}

	// Address table lookups
	_, _ = shortvec.EncodeLen(b, len(m.AddressTableLookups))
	for _, lookup := range m.AddressTableLookups {
		_, _ = b.Write(lookup.PublicKey)

		_, _ = shortvec.EncodeLen(b, len(lookup.WritableIndexes))
		_, _ = b.Write(lookup.WritableIndexes)

		_, _ = shortvec.EncodeLen(b, len(lookup.ReadonlyIndexes))
		_, _ = b.Write(lookup.ReadonlyIndexes)
	}

	return b.Bytes()
}

// Unmarshal decodes either wire layout, selected by the version
// discriminator in byte 0.
func (m *Message) Unmarshal(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty message")
	}

	if b[0]&versionMask == 0 {
		m.version = MessageVersionLegacy
		return m.unmarshal(bytes.NewBuffer(b))
	}

	version := b[0] & ^byte(versionMask)
	if version != 0 {
		return errors.Wrapf(ErrUnsupportedVersion, "version %d", version)
	}

	m.version = MessageVersion0
	return m.unmarshal(bytes.NewBuffer(b[1:]))
}

func (m *Message) unmarshal(buf *bytes.Buffer) (err error) {
	// Header
	if m.Header.NumSignatures, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num signatures")
	}
	if m.Header.NumReadonlySigned, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num readonly signatures")
	}
	if m.Header.NumReadOnly, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num readonly")
	}

	// Static accounts
	accountLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read account len")
	}
	if int(m.Header.NumSignatures) > accountLen {
		return errors.Errorf("num signatures %d exceeds account count %d", m.Header.NumSignatures, accountLen)
	}
	if accountLen > buf.Len()/ed25519.PublicKeySize {
		return errors.Errorf("account count %d exceeds remaining bytes", accountLen)
	}
	m.Accounts = make([]ed25519.PublicKey, accountLen)
	for i := 0; i < accountLen; i++ {
		m.Accounts[i] = make([]byte, ed25519.PublicKeySize)
		if _, err = io.ReadFull(buf, m.Accounts[i]); err != nil {
			return errors.Wrapf(err, "failed to read account at index %d", i)
		}
	}

	// Lifetime token
	if _, err = io.ReadFull(buf, m.RecentBlockhash[:]); err != nil {
		return errors.Wrap(err, "failed to read recent block hash")
	}

	// Instructions
	instructionLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read instruction len")
	}
	if instructionLen > buf.Len() {
		return errors.Errorf("instruction count %d exceeds remaining bytes", instructionLen)
	}
	m.Instructions = make([]CompiledInstruction, instructionLen)
	for i := 0; i < instructionLen; i++ {
		var c CompiledInstruction

		if c.ProgramIndex, err = buf.ReadByte(); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] program index", i)
		}

		accountLen, err := shortvec.DecodeLen(buf)
		if err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] account len", i)
		}
		c.Accounts = make([]byte, accountLen)
		if _, err = io.ReadFull(buf, c.Accounts); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] accounts", i)
		}

		dataLen, err := shortvec.DecodeLen(buf)
		if err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] data len", i)
		}
		c.Data = make([]byte, dataLen)
		if _, err = io.ReadFull(buf, c.Data); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] data", i)
		}

		m.Instructions[i] = c
	}

	if m.version != MessageVersionLegacy {
		if err := m.unmarshalLookups(buf); err != nil {
			return err
		}
	}

	// Instruction indices may reference loaded accounts, so range checks
	// run after any lookups are known.
	_, numLookups := m.numLookupAccounts()
	numAccounts := len(m.Accounts) + numLookups
	for i, c := range m.Instructions {
		if int(c.ProgramIndex) >= numAccounts {
			return errors.Errorf("program index out of range: %d:%d", i, c.ProgramIndex)
		}
		for _, index := range c.Accounts {
			if int(index) >= numAccounts {
				return errors.Errorf("account index out of range: %d:%d", i, index)
			}
		}
	}

	return nil
}

func (m *Message) unmarshalLookups(buf *bytes.Buffer) error {
	lookupLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read address table lookup len")
	}

	m.AddressTableLookups = make([]MessageAddressTableLookup, lookupLen)
	for i := 0; i < lookupLen; i++ {
		lookup := &m.AddressTableLookups[i]

		lookup.PublicKey = make([]byte, ed25519.PublicKeySize)
		if _, err = io.ReadFull(buf, lookup.PublicKey); err != nil {
			return errors.Wrapf(err, "failed to read lookup[%d] table address", i)
		}

		writableLen, err := shortvec.DecodeLen(buf)
		if err != nil {
			return errors.Wrapf(err, "failed to read lookup[%d] writable index len", i)
		}
		lookup.WritableIndexes = make([]byte, writableLen)
		if _, err = io.ReadFull(buf, lookup.WritableIndexes); err != nil {
			return errors.Wrapf(err, "failed to read lookup[%d] writable indexes", i)
		}

		readonlyLen, err := shortvec.DecodeLen(buf)
		if err != nil {
			return errors.Wrapf(err, "failed to read lookup[%d] readonly index len", i)
		}
		lookup.ReadonlyIndexes = make([]byte, readonlyLen)
		if _, err = io.ReadFull(buf, lookup.ReadonlyIndexes); err != nil {
			return errors.Wrapf(err, "failed to read lookup[%d] readonly indexes", i)
		}
	}

	return nil
}
