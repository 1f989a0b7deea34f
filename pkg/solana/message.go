package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"sort"

	"github.com/pkg/errors"
)

// Blockhash is the 32-byte lifetime token binding a message to a validity
// window: a recent blockhash, or a durable nonce value.
type Blockhash [sha256.Size]byte

type MessageVersion uint8

const (
	MessageVersionLegacy MessageVersion = iota
	MessageVersion0
)

func (v MessageVersion) String() string {
	switch v {
	case MessageVersionLegacy:
		return "legacy"
	case MessageVersion0:
		return "v0"
	}
	return "unknown"
}

// Header counts cover static accounts only; accounts loaded through address
// table lookups contribute nothing here.
type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

// MessageAddressTableLookup selects accounts out of an on-chain lookup
// table. Indexes reference positions within the table's own address list,
// not the message's account ordering.
type MessageAddressTableLookup struct {
	PublicKey       ed25519.PublicKey
	WritableIndexes []byte
	ReadonlyIndexes []byte
}

// AddressLookupTable is a candidate table supplied to versioned compilation:
// the table's address and its stored address list.
type AddressLookupTable struct {
	PublicKey ed25519.PublicKey
	Addresses []ed25519.PublicKey
}

// Message is the compiled, immutable form of a transaction: resolved account
// ordering, header, lifetime token, and index-referencing instructions.
//
// The version tag discriminates the two wire layouts. Legacy messages carry
// no address table lookups; v0 messages may.
type Message struct {
	version MessageVersion

	Header              Header
	Accounts            []ed25519.PublicKey
	RecentBlockhash     Blockhash
	Instructions        []CompiledInstruction
	AddressTableLookups []MessageAddressTableLookup
}

// Version returns which wire layout the message uses.
func (m Message) Version() MessageVersion {
	return m.version
}

// NewLegacyMessage compiles instructions into a legacy message.
func NewLegacyMessage(payer ed25519.PublicKey, recentBlockhash Blockhash, instructions ...Instruction) (Message, error) {
	return compileMessage(MessageVersionLegacy, payer, recentBlockhash, nil, instructions)
}

// NewV0Message compiles instructions into a v0 message, loading eligible
// accounts through the provided candidate lookup tables.
func NewV0Message(payer ed25519.PublicKey, recentBlockhash Blockhash, tables []AddressLookupTable, instructions ...Instruction) (Message, error) {
	return compileMessage(MessageVersion0, payer, recentBlockhash, tables, instructions)
}

// resolvedAccount is one address with its final merged role.
type resolvedAccount struct {
	publicKey  ed25519.PublicKey
	isSigner   bool
	isWritable bool
	isPayer    bool
}

// bucket maps a final role onto the static ordering: writable signers,
// readonly signers, writable non-signers, readonly non-signers.
func (a resolvedAccount) bucket() int {
	switch {
	case a.isSigner && a.isWritable:
		return 0
	case a.isSigner:
		return 1
	case a.isWritable:
		return 2
	default:
		return 3
	}
}

type sortableResolvedAccounts []resolvedAccount

func (s sortableResolvedAccounts) Len() int {
	return len(s)
}

func (s sortableResolvedAccounts) Less(i int, j int) bool {
	if s[i].isPayer != s[j].isPayer {
		return s[i].isPayer
	}
	if s[i].bucket() != s[j].bucket() {
		return s[i].bucket() < s[j].bucket()
	}

	return bytes.Compare(s[i].publicKey, s[j].publicKey) < 0
}

func (s sortableResolvedAccounts) Swap(i int, j int) {
	s[i], s[j] = s[j], s[i]
}

// resolveAccounts folds the fee payer and every instruction into one entry
// per unique address, merging roles via OR. Permissions only ever increase,
// regardless of the order observations arrive in. Program addresses seed at
// {signer:false, writable:false} and may still be upgraded by account metas
// naming the same address.
func resolveAccounts(payer ed25519.PublicKey, instructions []Instruction) ([]resolvedAccount, error) {
	if len(payer) != ed25519.PublicKeySize {
		return nil, errors.Wrap(ErrInvalidAddress, "fee payer")
	}

	accounts := make([]resolvedAccount, 0, 1+len(instructions))
	indexByKey := make(map[string]int)

	upsert := func(pub ed25519.PublicKey, isSigner, isWritable bool) error {
		if len(pub) != ed25519.PublicKeySize {
			return ErrInvalidAddress
		}

		if i, ok := indexByKey[string(pub)]; ok {
			accounts[i].isSigner = accounts[i].isSigner || isSigner
			accounts[i].isWritable = accounts[i].isWritable || isWritable
			return nil
		}

		indexByKey[string(pub)] = len(accounts)
		accounts = append(accounts, resolvedAccount{
			publicKey:  pub,
			isSigner:   isSigner,
			isWritable: isWritable,
		})
		return nil
	}

	if err := upsert(payer, true, true); err != nil {
		return nil, err
	}
	accounts[0].isPayer = true

	for i, instruction := range instructions {
		if err := upsert(instruction.Program, false, false); err != nil {
			return nil, errors.Wrapf(err, "instruction %d program", i)
		}
		for j, meta := range instruction.Accounts {
			if err := upsert(meta.PublicKey, meta.IsSigner, meta.IsWritable); err != nil {
				return nil, errors.Wrapf(err, "instruction %d account %d", i, j)
			}
		}
	}

	return accounts, nil
}

func compileMessage(version MessageVersion, payer ed25519.PublicKey, recentBlockhash Blockhash, tables []AddressLookupTable, instructions []Instruction) (Message, error) {
	resolved, err := resolveAccounts(payer, instructions)
	if err != nil {
		return Message{}, err
	}

	// Partition into static accounts and lookup candidates using final
	// merged roles only. Signers are always static; a non-signer is loaded
	// through the first caller-supplied table that contains it.
	var static []resolvedAccount
	writableTableIndexes := make([][]byte, len(tables))
	readonlyTableIndexes := make([][]byte, len(tables))

	for _, account := range resolved {
		tableIndex, position := findInTables(tables, account.publicKey)
		if account.isSigner || tableIndex < 0 {
			static = append(static, account)
			continue
		}

		if account.isWritable {
			writableTableIndexes[tableIndex] = append(writableTableIndexes[tableIndex], position)
		} else {
			readonlyTableIndexes[tableIndex] = append(readonlyTableIndexes[tableIndex], position)
		}
	}

	sort.Sort(sortableResolvedAccounts(static))

	var m Message
	m.version = version
	m.RecentBlockhash = recentBlockhash

	for _, account := range static {
		m.Accounts = append(m.Accounts, account.publicKey)

		if account.isSigner {
			m.Header.NumSignatures++

			if !account.isWritable {
				m.Header.NumReadonlySigned++
			}
		} else if !account.isWritable {
			m.Header.NumReadOnly++
		}
	}

	// Loaded accounts continue the index space after the static accounts:
	// every table's writable entries first, then every table's readonly
	// entries, tables in the order they were supplied. Table-internal
	// positions within a group are listed ascending.
	var loadedWritable []ed25519.PublicKey
	var loadedReadonly []ed25519.PublicKey
	for i := range tables {
		sortByteSlice(writableTableIndexes[i])
		sortByteSlice(readonlyTableIndexes[i])

		for _, position := range writableTableIndexes[i] {
			loadedWritable = append(loadedWritable, tables[i].Addresses[position])
		}
		for _, position := range readonlyTableIndexes[i] {
			loadedReadonly = append(loadedReadonly, tables[i].Addresses[position])
		}

		if len(writableTableIndexes[i]) == 0 && len(readonlyTableIndexes[i]) == 0 {
			continue
		}

		m.AddressTableLookups = append(m.AddressTableLookups, MessageAddressTableLookup{
			PublicKey:       tables[i].PublicKey,
			WritableIndexes: writableTableIndexes[i],
			ReadonlyIndexes: readonlyTableIndexes[i],
		})
	}

	var allAccounts []ed25519.PublicKey
	allAccounts = append(allAccounts, m.Accounts...)
	allAccounts = append(allAccounts, loadedWritable...)
	allAccounts = append(allAccounts, loadedReadonly...)

	if len(allAccounts) > 256 {
		return Message{}, ErrTooManyAccounts
	}

	for _, instruction := range instructions {
		c := CompiledInstruction{
			ProgramIndex: byte(indexOf(allAccounts, instruction.Program)),
			Data:         instruction.Data,
		}

		for _, a := range instruction.Accounts {
			c.Accounts = append(c.Accounts, byte(indexOf(allAccounts, a.PublicKey)))
		}

		m.Instructions = append(m.Instructions, c)
	}

	return m, nil
}

// findInTables locates an address in the first table containing it,
// returning the table index and the address's position within that table.
func findInTables(tables []AddressLookupTable, pub ed25519.PublicKey) (int, byte) {
	for i, table := range tables {
		for j, address := range table.Addresses {
			if bytes.Equal(address, pub) {
				return i, byte(j)
			}
		}
	}

	return -1, 0
}

func sortByteSlice(b []byte) {
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
}

func indexOf(slice []ed25519.PublicKey, item ed25519.PublicKey) int {
	for i, val := range slice {
		if bytes.Equal(val, item) {
			return i
		}
	}

	return -1
}

// numLookupAccounts returns how many accounts the message loads through
// address table lookups.
func (m Message) numLookupAccounts() (writable int, total int) {
	for _, lookup := range m.AddressTableLookups {
		writable += len(lookup.WritableIndexes)
		total += len(lookup.WritableIndexes) + len(lookup.ReadonlyIndexes)
	}
	return writable, total
}

// IsAccountSigner reports whether the account at the given index must sign
// the transaction. Only static accounts can sign, so this is a pure header
// query.
func (m Message) IsAccountSigner(index int) bool {
	return index >= 0 && index < int(m.Header.NumSignatures)
}

// IsAccountWritable reports whether the account at the given index may be
// written to. Static indices resolve against the header alone; indices past
// the static range fall into the loaded-accounts region, where all writable
// lookup accounts precede all readonly ones.
func (m Message) IsAccountWritable(index int) bool {
	if index < 0 {
		return false
	}

	numSigners := int(m.Header.NumSignatures)
	if index < numSigners {
		return index < numSigners-int(m.Header.NumReadonlySigned)
	}
	if index < len(m.Accounts) {
		unsignedIndex := index - numSigners
		numWritableUnsigned := len(m.Accounts) - numSigners - int(m.Header.NumReadOnly)
		return unsignedIndex < numWritableUnsigned
	}

	writable, total := m.numLookupAccounts()
	lookupIndex := index - len(m.Accounts)
	return lookupIndex < total && lookupIndex < writable
}

// Signers returns the static accounts that must sign, in slot order.
func (m Message) Signers() []ed25519.PublicKey {
	return m.Accounts[:m.Header.NumSignatures]
}
