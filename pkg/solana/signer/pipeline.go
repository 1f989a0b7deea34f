package signer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/amilz/solana-kit/pkg/solana"
)

// Pipeline runs a batch of transactions through composed signers under the
// protocol's ordering contract.
type Pipeline struct {
	log *logrus.Entry

	modifying []ModifyingSigner
	partial   []PartialSigner
	sending   SendingSigner
}

type PipelineOption func(*Pipeline)

func WithModifyingSigners(signers ...ModifyingSigner) PipelineOption {
	return func(p *Pipeline) {
		p.modifying = append(p.modifying, signers...)
	}
}

func WithPartialSigners(signers ...PartialSigner) PipelineOption {
	return func(p *Pipeline) {
		p.partial = append(p.partial, signers...)
	}
}

func WithSendingSigner(s SendingSigner) PipelineOption {
	return func(p *Pipeline) {
		p.sending = s
	}
}

func WithLogger(log *logrus.Entry) PipelineOption {
	return func(p *Pipeline) {
		p.log = log
	}
}

func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		log: logrus.StandardLogger().WithField("type", "solana/signer"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// SignTransactions drives the batch through every composed signer except
// the sending signer: modifying signers strictly in order, one at a time,
// then all partial signers concurrently. Partial signer results are folded
// into each transaction's signature dictionary in composition order, so
// collisions resolve last-write-wins deterministically regardless of
// completion order.
func (p *Pipeline) SignTransactions(ctx context.Context, txns []*solana.Transaction) ([]*solana.Transaction, error) {
	log := p.log.WithField("method", "SignTransactions")

	for _, s := range p.modifying {
		updated, err := s.ModifyAndSignTransactions(ctx, txns)
		if err != nil {
			return nil, errors.Wrapf(err, "modifying signer %s failed", encodeAddress(s))
		}
		if len(updated) != len(txns) {
			return nil, errors.Wrapf(ErrBatchSizeMismatch, "modifying signer %s", encodeAddress(s))
		}

		txns = updated
	}

	results := make([][]solana.Signature, len(p.partial))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, s := range p.partial {
		i, s := i, s

		group.Go(func() error {
			sigs, err := s.SignTransactions(groupCtx, txns)
			if err != nil {
				return errors.Wrapf(err, "partial signer %s failed", encodeAddress(s))
			}
			if len(sigs) != len(txns) {
				return errors.Wrapf(ErrBatchSizeMismatch, "partial signer %s", encodeAddress(s))
			}

			results[i] = sigs
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	for j, txn := range txns {
		dict := NewDictionary()
		for i, s := range p.partial {
			dict.Put(s.Address(), results[i][j])
		}

		if err := dict.Apply(txn); err != nil {
			return nil, errors.Wrapf(err, "transaction %d", j)
		}
	}

	log.WithField("transactions", len(txns)).Trace("signed batch")

	return txns, nil
}

// SignAndSendTransactions runs the full composition, handing the batch to
// the sending signer last. The returned values are the network-assigned
// transaction identifiers.
func (p *Pipeline) SignAndSendTransactions(ctx context.Context, txns []*solana.Transaction) ([]solana.Signature, error) {
	if p.sending == nil {
		return nil, ErrNoSendingSigner
	}

	txns, err := p.SignTransactions(ctx, txns)
	if err != nil {
		return nil, err
	}

	ids, err := p.sending.SignAndSendTransactions(ctx, txns)
	if err != nil {
		return nil, errors.Wrapf(err, "sending signer %s failed", encodeAddress(p.sending))
	}
	if len(ids) != len(txns) {
		return nil, errors.Wrapf(ErrBatchSizeMismatch, "sending signer %s", encodeAddress(p.sending))
	}

	return ids, nil
}
