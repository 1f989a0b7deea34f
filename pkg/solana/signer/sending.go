package signer

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/amilz/solana-kit/pkg/solana"
)

func encodeAddress(s Signer) string {
	return base58.Encode(s.Address())
}

// RPCSendingSigner signs under a local key and submits each transaction
// through a JSON RPC client, returning the network transaction identifiers.
type RPCSendingSigner struct {
	local      *LocalSigner
	client     solana.Client
	commitment solana.Commitment
}

var _ SendingSigner = (*RPCSendingSigner)(nil)

func NewRPCSendingSigner(priv ed25519.PrivateKey, client solana.Client, commitment solana.Commitment) (*RPCSendingSigner, error) {
	local, err := NewLocalSigner(priv)
	if err != nil {
		return nil, err
	}

	return &RPCSendingSigner{
		local:      local,
		client:     client,
		commitment: commitment,
	}, nil
}

func (s *RPCSendingSigner) Address() ed25519.PublicKey {
	return s.local.Address()
}

// SignAndSendTransactions fills this signer's slot in every transaction,
// then submits them in order. Submission stops at the first failure.
func (s *RPCSendingSigner) SignAndSendTransactions(ctx context.Context, txns []*solana.Transaction) ([]solana.Signature, error) {
	sigs, err := s.local.SignTransactions(ctx, txns)
	if err != nil {
		return nil, err
	}

	ids := make([]solana.Signature, len(txns))
	for i, txn := range txns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := txn.AddSignature(s.Address(), sigs[i]); err != nil {
			return nil, err
		}

		id, err := s.client.SubmitTransaction(*txn, s.commitment)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to submit transaction %d", i)
		}

		ids[i] = id
	}

	return ids, nil
}
