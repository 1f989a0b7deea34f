// Package signer defines the signing capability variants composed over
// compiled transactions, and the rules for combining them.
//
// Composition contract: modifying signers run strictly sequentially and
// before everything else, since rewriting content invalidates previously
// collected signatures. Partial signers never alter content and may run in
// any order, including concurrently. At most one sending signer runs last.
// The protocol does not detect or repair out-of-order use.
package signer

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/amilz/solana-kit/pkg/solana"
)

var (
	// ErrBatchSizeMismatch indicates a signer returned a result set whose
	// size differs from the batch it was handed.
	ErrBatchSizeMismatch = errors.New("signer result size does not match batch size")

	// ErrNoSendingSigner indicates a send was requested from a pipeline
	// with no sending signer configured.
	ErrNoSendingSigner = errors.New("no sending signer configured")

	// ErrInvalidPrivateKey indicates a key of the wrong length.
	ErrInvalidPrivateKey = errors.New("invalid ed25519 private key length")
)

// Signer identifies a signing capability by the account address it signs
// under.
type Signer interface {
	Address() ed25519.PublicKey
}

// PartialSigner produces one signature per transaction in a batch, under
// its own address, without altering transaction content. Partial signers
// are safe to run concurrently over the same batch.
type PartialSigner interface {
	Signer

	SignTransactions(ctx context.Context, txns []*solana.Transaction) ([]solana.Signature, error)
}

// ModifyingSigner may rewrite transaction content (for example, inserting
// instructions) before signing, returning updated transactions carrying
// merged signature sets. Because mutation invalidates previously computed
// signatures, a modifying signer must run before any partial or sending
// signer touches the batch.
type ModifyingSigner interface {
	Signer

	ModifyAndSignTransactions(ctx context.Context, txns []*solana.Transaction) ([]*solana.Transaction, error)
}

// SendingSigner is terminal: it signs (optionally after its own content
// modification) and transmits the batch, returning the network-assigned
// transaction identifiers instead of bare signatures.
type SendingSigner interface {
	Signer

	SignAndSendTransactions(ctx context.Context, txns []*solana.Transaction) ([]solana.Signature, error)
}

// Dictionary maps account addresses to signatures for one transaction.
type Dictionary struct {
	entries map[string]solana.Signature
}

// NewDictionary returns an empty signature dictionary.
func NewDictionary() Dictionary {
	return Dictionary{entries: make(map[string]solana.Signature)}
}

// DictionaryFromTransaction captures the filled signature slots of a
// transaction.
func DictionaryFromTransaction(txn *solana.Transaction) Dictionary {
	d := NewDictionary()
	for i, sig := range txn.Signatures {
		if !sig.IsEmpty() {
			d.Put(txn.Message.Accounts[i], sig)
		}
	}
	return d
}

// Put stores a signature, overwriting any previous entry for the address.
func (d Dictionary) Put(pub ed25519.PublicKey, sig solana.Signature) {
	d.entries[string(pub)] = sig
}

// Get returns the signature stored for an address, if any.
func (d Dictionary) Get(pub ed25519.PublicKey) (solana.Signature, bool) {
	sig, ok := d.entries[string(pub)]
	return sig, ok
}

// Len returns the number of entries.
func (d Dictionary) Len() int {
	return len(d.entries)
}

// Merge folds another dictionary into this one. On collision the other
// dictionary's entry wins, so a later-composed signer can supersede a stale
// signature it invalidated.
func (d Dictionary) Merge(other Dictionary) {
	for k, sig := range other.entries {
		d.entries[k] = sig
	}
}

// Apply writes every entry into the transaction's signature slots. An entry
// whose address is not among the transaction's required signers fails with
// the orchestrator's unknown-signer error.
func (d Dictionary) Apply(txn *solana.Transaction) error {
	for k, sig := range d.entries {
		if err := txn.AddSignature(ed25519.PublicKey(k), sig); err != nil {
			return errors.Wrapf(err, "applying signature for %s", base58.Encode([]byte(k)))
		}
	}
	return nil
}
