package solana

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const (
	// MaxTransactionSize taken from: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
	MaxTransactionSize = 1232
)

type Signature [ed25519.SignatureSize]byte

var emptySignature Signature

// IsEmpty reports whether the signature slot holds no signature. An empty
// slot encodes as 64 zero bytes on the wire.
func (s Signature) IsEmpty() bool {
	return s == emptySignature
}

func (s Signature) ToBase58() string {
	return base58.Encode(s[:])
}

// Transaction pairs an immutable compiled message with one signature slot
// per required signer. Slot positions are fixed by the message's static
// signer ordering; slot contents may be overwritten but slots are never
// reordered.
type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewLegacyTransaction compiles instructions into a legacy transaction with
// empty signature slots.
func NewLegacyTransaction(payer ed25519.PublicKey, recentBlockhash Blockhash, instructions ...Instruction) (Transaction, error) {
	m, err := NewLegacyMessage(payer, recentBlockhash, instructions...)
	if err != nil {
		return Transaction{}, err
	}

	return newTransaction(m), nil
}

// NewV0Transaction compiles instructions into a v0 transaction, loading
// eligible accounts through the candidate lookup tables.
func NewV0Transaction(payer ed25519.PublicKey, recentBlockhash Blockhash, tables []AddressLookupTable, instructions ...Instruction) (Transaction, error) {
	m, err := NewV0Message(payer, recentBlockhash, tables, instructions...)
	if err != nil {
		return Transaction{}, err
	}

	return newTransaction(m), nil
}

// NewTransactionFromBytes parses a serialized transaction, auto-detecting
// the message version.
func NewTransactionFromBytes(b []byte) (Transaction, error) {
	var txn Transaction
	if err := txn.Unmarshal(b); err != nil {
		return Transaction{}, err
	}
	return txn, nil
}

func newTransaction(m Message) Transaction {
	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

// Signature returns the first signature, which doubles as the transaction's
// network identifier.
func (t *Transaction) Signature() []byte {
	return t.Signatures[0][:]
}

// Sign computes each signer's signature over the message's exact wire bytes
// and writes it into that signer's slot, overwriting any previous content.
// Signers that are not required signers of the message fail with
// ErrUnknownSigner.
func (t *Transaction) Sign(signers ...ed25519.PrivateKey) error {
	messageBytes := t.Message.Marshal()

	for _, s := range signers {
		pub := s.Public().(ed25519.PublicKey)

		if err := t.setSignature(pub, ed25519.Sign(s, messageBytes)); err != nil {
			return err
		}
	}

	return nil
}

// AddSignature stores an externally produced signature into the slot owned
// by the given account. The signature is not verified here; Verify or
// Serialize will reject it if it does not match the message bytes.
func (t *Transaction) AddSignature(pub ed25519.PublicKey, sig Signature) error {
	return t.setSignature(pub, sig[:])
}

func (t *Transaction) setSignature(pub ed25519.PublicKey, sig []byte) error {
	index := indexOf(t.Message.Accounts, pub)
	if index < 0 || index >= len(t.Signatures) {
		return errors.Wrapf(ErrUnknownSigner, "account %s", base58.Encode(pub))
	}

	copy(t.Signatures[index][:], sig)
	return nil
}

// Verify checks every filled slot against the message bytes and the slot's
// account. Empty slots fail verification when requireAll is set and are
// skipped otherwise. Any cryptographic failure short-circuits to false.
func (t *Transaction) Verify(requireAll bool) bool {
	messageBytes := t.Message.Marshal()

	for i, sig := range t.Signatures {
		if sig.IsEmpty() {
			if requireAll {
				return false
			}
			continue
		}

		if !ed25519.Verify(t.Message.Accounts[i], messageBytes, sig[:]) {
			return false
		}
	}

	return true
}

// Serialize produces the transaction's wire bytes, requiring every slot to
// be filled with a verifying signature. Use Marshal for the unchecked
// encoding.
func (t *Transaction) Serialize() ([]byte, error) {
	messageBytes := t.Message.Marshal()

	for i, sig := range t.Signatures {
		if sig.IsEmpty() {
			return nil, errors.Wrapf(ErrMissingSignature, "account %s", base58.Encode(t.Message.Accounts[i]))
		}
		if !ed25519.Verify(t.Message.Accounts[i], messageBytes, sig[:]) {
			return nil, errors.Wrapf(ErrSignatureVerification, "account %s", base58.Encode(t.Message.Accounts[i]))
		}
	}

	b := t.Marshal()
	if len(b) > MaxTransactionSize {
		return nil, errors.Wrapf(ErrTransactionTooLarge, "%d bytes", len(b))
	}

	return b, nil
}

func (t *Transaction) String() string {
	var sb strings.Builder
	sb.WriteString("Signatures:\n")
	for i, s := range t.Signatures {
		sb.WriteString(fmt.Sprintf("  %d: %s\n", i, base58.Encode(s[:])))
	}
	sb.WriteString("Message:\n")
	sb.WriteString(fmt.Sprintf("  Version: %s\n", t.Message.version.String()))
	sb.WriteString("  Header:\n")
	sb.WriteString(fmt.Sprintf("    NumSignatures: %d\n", t.Message.Header.NumSignatures))
	sb.WriteString(fmt.Sprintf("    NumReadOnly: %d\n", t.Message.Header.NumReadOnly))
	sb.WriteString(fmt.Sprintf("    NumReadOnlySigned: %d\n", t.Message.Header.NumReadonlySigned))
	sb.WriteString("  Static Accounts:\n")
	for i, a := range t.Message.Accounts {
		sb.WriteString(fmt.Sprintf("    %d: %s\n", i, base58.Encode(a)))
	}
	sb.WriteString("  Instructions:\n")
	for i := range t.Message.Instructions {
		sb.WriteString(fmt.Sprintf("    %d:\n", i))
		sb.WriteString(fmt.Sprintf("      ProgramIndex: %d\n", t.Message.Instructions[i].ProgramIndex))
		sb.WriteString(fmt.Sprintf("      Accounts: %v\n", t.Message.Instructions[i].Accounts))
		sb.WriteString(fmt.Sprintf("      Data: %v\n", t.Message.Instructions[i].Data))
	}
	if len(t.Message.AddressTableLookups) > 0 {
		sb.WriteString("  Address Table Lookups:\n")
		for i := range t.Message.AddressTableLookups {
			sb.WriteString(fmt.Sprintf("    %s:\n", base58.Encode(t.Message.AddressTableLookups[i].PublicKey)))
			sb.WriteString(fmt.Sprintf("      Writable Indexes: %v\n", t.Message.AddressTableLookups[i].WritableIndexes))
			sb.WriteString(fmt.Sprintf("      Readonly Indexes: %v\n", t.Message.AddressTableLookups[i].ReadonlyIndexes))
		}
	}
	return sb.String()
}

// Equal reports field-for-field equality of two transactions.
func (t *Transaction) Equal(other *Transaction) bool {
	return bytes.Equal(t.Marshal(), other.Marshal())
}
