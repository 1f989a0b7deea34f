package solana

import (
	"crypto/ed25519"
	"encoding/json"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybbus/jsonrpc"
)

// fakeRPCClient serves canned JSON payloads per method.
type fakeRPCClient struct {
	payloads map[string]string
	errs     map[string]error
	calls    map[string]int
}

func newFakeRPCClient() *fakeRPCClient {
	return &fakeRPCClient{
		payloads: make(map[string]string),
		errs:     make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (f *fakeRPCClient) Call(method string, params ...interface{}) (*jsonrpc.RPCResponse, error) {
	return nil, nil
}

func (f *fakeRPCClient) CallRaw(request *jsonrpc.RPCRequest) (*jsonrpc.RPCResponse, error) {
	return nil, nil
}

func (f *fakeRPCClient) CallFor(out interface{}, method string, params ...interface{}) error {
	f.calls[method]++

	if err, ok := f.errs[method]; ok {
		return err
	}

	return json.Unmarshal([]byte(f.payloads[method]), out)
}

func (f *fakeRPCClient) CallBatch(requests jsonrpc.RPCRequests) (jsonrpc.RPCResponses, error) {
	return nil, nil
}

func (f *fakeRPCClient) CallBatchRaw(requests jsonrpc.RPCRequests) (jsonrpc.RPCResponses, error) {
	return nil, nil
}

func newTestClient(rpc jsonrpc.RPCClient) *client {
	return &client{
		log:    logrus.StandardLogger().WithField("type", "solana/client"),
		client: rpc,
	}
}

func TestClient_GetLatestBlockhash(t *testing.T) {
	var expected Blockhash
	for i := range expected {
		expected[i] = byte(i + 1)
	}

	rpc := newFakeRPCClient()
	rpc.payloads["getLatestBlockhash"] = `{"value":{"blockhash":"` + base58.Encode(expected[:]) + `"}}`

	c := newTestClient(rpc)

	hash, err := c.GetLatestBlockhash()
	require.NoError(t, err)
	assert.Equal(t, expected, hash)

	// Within the refresh window the cached value is served.
	hash, err = c.GetLatestBlockhash()
	require.NoError(t, err)
	assert.Equal(t, expected, hash)
	assert.Equal(t, 1, rpc.calls["getLatestBlockhash"])
}

func TestClient_GetBalanceAndSlot(t *testing.T) {
	rpc := newFakeRPCClient()
	rpc.payloads["getBalance"] = `{"value":12345}`
	rpc.payloads["getSlot"] = `98765`
	rpc.payloads["getMinimumBalanceForRentExemption"] = `890880`

	c := newTestClient(rpc)

	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	balance, err := c.GetBalance(pub)
	require.NoError(t, err)
	assert.EqualValues(t, 12345, balance)

	slot, err := c.GetSlot(CommitmentFinalized)
	require.NoError(t, err)
	assert.EqualValues(t, 98765, slot)

	lamports, err := c.GetMinimumBalanceForRentExemption(165)
	require.NoError(t, err)
	assert.EqualValues(t, 890880, lamports)
}

func TestClient_GetAccountInfo(t *testing.T) {
	owner, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	rpc := newFakeRPCClient()
	rpc.payloads["getAccountInfo"] = `{"value":{"lamports":10,"owner":"` + base58.Encode(owner) + `","data":["aGVsbG8=","base64"],"executable":false}}`

	c := newTestClient(rpc)

	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	info, err := c.GetAccountInfo(pub, CommitmentConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 10, info.Lamports)
	assert.EqualValues(t, owner, info.Owner)
	assert.Equal(t, []byte("hello"), info.Data)
	assert.False(t, info.Executable)

	rpc.payloads["getAccountInfo"] = `{"value":null}`
	_, err = c.GetAccountInfo(pub, CommitmentConfirmed)
	assert.Equal(t, ErrNoAccountInfo, err)
}

func TestClient_SubmitTransactionErrors(t *testing.T) {
	keys := generateKeys(t, 2)
	txn, err := NewLegacyTransaction(
		public(keys[0]),
		Blockhash{},
		NewInstruction(public(keys[1]), []byte{1}, NewAccountMeta(public(keys[0]), true)),
	)
	require.NoError(t, err)
	require.NoError(t, txn.Sign(keys[0]))

	rpc := newFakeRPCClient()
	rpc.errs["sendTransaction"] = &jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed",
		Data: map[string]interface{}{
			"err": "BlockhashNotFound",
		},
	}

	c := newTestClient(rpc)

	_, err = c.SubmitTransaction(txn, CommitmentConfirmed)
	require.Error(t, err)
	assert.Equal(t, string(TransactionErrorBlockhashNotFound), err.Error())

	rpc.errs["sendTransaction"] = &jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed",
		Data: map[string]interface{}{
			"err": map[string]interface{}{
				"InstructionError": []interface{}{0.0, "InvalidArgument"},
			},
		},
	}

	_, err = c.SubmitTransaction(txn, CommitmentConfirmed)
	require.Error(t, err)
	instructionErr, ok := err.(*InstructionError)
	require.True(t, ok)
	assert.Equal(t, 0, instructionErr.Index)
	assert.Equal(t, InstructionErrorInvalidArgument, instructionErr.ErrorKey())

	// Success path returns the transaction's own identifier.
	delete(rpc.errs, "sendTransaction")
	rpc.payloads["sendTransaction"] = `"` + txn.Signatures[0].ToBase58() + `"`

	id, err := c.SubmitTransaction(txn, CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, txn.Signatures[0], id)
}

func TestClient_GetSignatureStatuses(t *testing.T) {
	rpc := newFakeRPCClient()
	rpc.payloads["getSignatureStatuses"] = `{"value":[null,{"slot":70,"confirmations":10,"confirmationStatus":"confirmed"},{"slot":80,"confirmations":null,"confirmationStatus":"finalized","err":"BlockhashNotFound"}]}`

	c := newTestClient(rpc)

	var sigs [3]Signature
	for i := range sigs {
		sigs[i][0] = byte(i + 1)
	}

	statuses, err := c.GetSignatureStatuses(sigs[:])
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	assert.Nil(t, statuses[0])

	require.NotNil(t, statuses[1])
	assert.EqualValues(t, 70, statuses[1].Slot)
	assert.True(t, statuses[1].Confirmed())
	assert.False(t, statuses[1].Finalized())
	assert.Nil(t, statuses[1].ErrorResult)

	require.NotNil(t, statuses[2])
	assert.True(t, statuses[2].Finalized())
	require.NotNil(t, statuses[2].ErrorResult)
	assert.Equal(t, TransactionErrorBlockhashNotFound, statuses[2].ErrorResult.ErrorKey())
}
