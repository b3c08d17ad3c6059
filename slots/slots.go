// Package slots derives storage slots and encodes typed values into the
// 32-byte words of a StateDB account.
package slots

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

const chunkSize = 32

// ErrAmountOutOfRange is returned for negative amounts or amounts wider than
// a storage word.
var ErrAmountOutOfRange = errors.New("slots: amount out of range")

// StateReader is the read half of vm.StateDB used by the slot helpers.
type StateReader interface {
	GetState(addr common.Address, key common.Hash) common.Hash
}

// StateWriter is the read/write subset of vm.StateDB used by the slot helpers.
type StateWriter interface {
	StateReader
	SetState(addr common.Address, key common.Hash, value common.Hash)
}

// Field hashes (addr[20B] || 0x00 || field) for a per-address slot.
func Field(addr common.Address, field string) common.Hash {
	key := make([]byte, 0, common.AddressLength+1+len(field))
	key = append(key, addr.Bytes()...)
	key = append(key, 0x00)
	key = append(key, field...)
	return common.BytesToHash(crypto.Keccak256(key))
}

// Named returns the slot of a singleton field.
func Named(namespace string) common.Hash {
	return common.BytesToHash(crypto.Keccak256([]byte(namespace)))
}

// Indexed returns the slot of the i-th element of an append-only list.
func Indexed(namespace string, i uint64) common.Hash {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], i)
	buf := make([]byte, 0, len(namespace)+1+8)
	buf = append(buf, namespace...)
	buf = append(buf, 0x00)
	buf = append(buf, idx[:]...)
	return common.BytesToHash(crypto.Keccak256(buf))
}

// Meta derives a named sub-slot of a record rooted at base.
func Meta(base common.Hash, field string) common.Hash {
	buf := make([]byte, 0, len(base)+1+len(field))
	buf = append(buf, base[:]...)
	buf = append(buf, 0x00)
	buf = append(buf, field...)
	return common.BytesToHash(crypto.Keccak256(buf))
}

func chunkSlot(base common.Hash, index uint64) common.Hash {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], index)
	buf := make([]byte, 0, len(base)+1+len("chunk")+8)
	buf = append(buf, base[:]...)
	buf = append(buf, 0x00)
	buf = append(buf, "chunk"...)
	buf = append(buf, idx[:]...)
	return common.BytesToHash(crypto.Keccak256(buf))
}

func ReadUint64(db StateReader, owner common.Address, slot common.Hash) uint64 {
	raw := db.GetState(owner, slot)
	return binary.BigEndian.Uint64(raw[24:])
}

func WriteUint64(db StateWriter, owner common.Address, slot common.Hash, n uint64) {
	var word common.Hash
	binary.BigEndian.PutUint64(word[24:], n) // right-aligned in 32 bytes
	db.SetState(owner, slot, word)
}

func ReadBool(db StateReader, owner common.Address, slot common.Hash) bool {
	return db.GetState(owner, slot)[31] != 0
}

func WriteBool(db StateWriter, owner common.Address, slot common.Hash, v bool) {
	var word common.Hash
	if v {
		word[31] = 1
	}
	db.SetState(owner, slot, word)
}

func ReadAddress(db StateReader, owner common.Address, slot common.Hash) common.Address {
	raw := db.GetState(owner, slot)
	return common.BytesToAddress(raw[12:]) // address is right-aligned
}

func WriteAddress(db StateWriter, owner common.Address, slot common.Hash, addr common.Address) {
	var word common.Hash
	copy(word[12:], addr.Bytes())
	db.SetState(owner, slot, word)
}

// CheckAmount verifies that v fits an unsigned storage word.
func CheckAmount(v *big.Int) error {
	if v == nil || v.Sign() < 0 || v.BitLen() > 256 {
		return ErrAmountOutOfRange
	}
	return nil
}

// ReadAmount returns the unsigned 256-bit amount stored at slot.
func ReadAmount(db StateReader, owner common.Address, slot common.Hash) *big.Int {
	raw := db.GetState(owner, slot)
	return new(uint256.Int).SetBytes32(raw[:]).ToBig()
}

// WriteAmount stores v at slot. Callers validate with CheckAmount first; an
// out of range value here is an accounting bug and panics.
func WriteAmount(db StateWriter, owner common.Address, slot common.Hash, v *big.Int) {
	if v.Sign() < 0 {
		panic("slots: negative amount")
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		panic("slots: amount overflows 256 bits")
	}
	db.SetState(owner, slot, common.Hash(u.Bytes32()))
}

// AddAmount adds delta to the amount at slot and returns the new value.
func AddAmount(db StateWriter, owner common.Address, slot common.Hash, delta *big.Int) *big.Int {
	v := new(big.Int).Add(ReadAmount(db, owner, slot), delta)
	WriteAmount(db, owner, slot, v)
	return v
}

// SubAmount subtracts delta from the amount at slot and returns the new value.
func SubAmount(db StateWriter, owner common.Address, slot common.Hash, delta *big.Int) *big.Int {
	v := new(big.Int).Sub(ReadAmount(db, owner, slot), delta)
	WriteAmount(db, owner, slot, v)
	return v
}

func chunkCount(valueLen uint64) uint64 {
	if valueLen == 0 {
		return 0
	}
	return (valueLen + chunkSize - 1) / chunkSize
}

// ReadBytes returns the variable length value stored under base.
func ReadBytes(db StateReader, owner common.Address, base common.Hash) []byte {
	valueLen := ReadUint64(db, owner, Meta(base, "len"))
	if valueLen == 0 {
		return []byte{}
	}
	value := make([]byte, valueLen)
	for i := uint64(0); i < chunkCount(valueLen); i++ {
		word := db.GetState(owner, chunkSlot(base, i))
		start := i * chunkSize
		end := start + chunkSize
		if end > valueLen {
			end = valueLen
		}
		copy(value[start:end], word[:end-start])
	}
	return value
}

// WriteBytes stores value under base, clearing chunks left over from a
// longer previous value.
func WriteBytes(db StateWriter, owner common.Address, base common.Hash, value []byte) {
	lenSlot := Meta(base, "len")
	oldLen := ReadUint64(db, owner, lenSlot)
	newChunks := chunkCount(uint64(len(value)))
	for i := uint64(0); i < newChunks; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > uint64(len(value)) {
			end = uint64(len(value))
		}
		var word common.Hash
		copy(word[:], value[start:end])
		db.SetState(owner, chunkSlot(base, i), word)
	}
	for i := newChunks; i < chunkCount(oldLen); i++ {
		db.SetState(owner, chunkSlot(base, i), common.Hash{})
	}
	WriteUint64(db, owner, lenSlot, uint64(len(value)))
}
