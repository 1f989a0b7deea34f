package memo

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amilz/solana-kit/pkg/solana"
)

func TestInstruction(t *testing.T) {
	i := Instruction("hello, world!")
	assert.Equal(t, ProgramKey, i.Program)
	assert.Empty(t, i.Accounts)
	assert.Equal(t, "hello, world!", string(i.Data))
}

func TestDecompile(t *testing.T) {
	tx, err := solana.NewLegacyTransaction(
		make([]byte, 32),
		solana.Blockhash{},
		Instruction("hello, world"),
	)
	require.NoError(t, err)

	i, err := DecompileMemo(tx.Message, 0)
	assert.NoError(t, err)
	assert.Equal(t, "hello, world", string(i.Data))

	_, err = DecompileMemo(tx.Message, 1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "instruction doesn't exist")

	tx.Message.Accounts[1], _, err = ed25519.GenerateKey(nil)
	require.NoError(t, err)
	_, err = DecompileMemo(tx.Message, 0)
	assert.Error(t, err)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}
