package signer

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"

	"github.com/amilz/solana-kit/pkg/solana"
)

// LocalSigner is a PartialSigner backed by an in-memory ed25519 private
// key. Signing is synchronous; the context is honored between batch items
// so a cancelled call never leaves a half-signed result set.
type LocalSigner struct {
	priv ed25519.PrivateKey
}

var _ PartialSigner = (*LocalSigner)(nil)

// NewLocalSigner wraps an existing private key.
func NewLocalSigner(priv ed25519.PrivateKey) (*LocalSigner, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, ErrInvalidPrivateKey
	}

	return &LocalSigner{priv: priv}, nil
}

// GenerateLocalSigner creates a signer with a freshly generated keypair.
func GenerateLocalSigner() (*LocalSigner, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	return &LocalSigner{priv: priv}, nil
}

func (s *LocalSigner) Address() ed25519.PublicKey {
	return s.priv.Public().(ed25519.PublicKey)
}

// SignTransactions signs each transaction's exact message bytes, returning
// one signature per transaction. Transaction content is never altered.
func (s *LocalSigner) SignTransactions(ctx context.Context, txns []*solana.Transaction) ([]solana.Signature, error) {
	sigs := make([]solana.Signature, len(txns))

	for i, txn := range txns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		copy(sigs[i][:], ed25519.Sign(s.priv, txn.Message.Marshal()))
	}

	return sigs, nil
}
