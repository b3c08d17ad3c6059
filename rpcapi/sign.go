package rpcapi

import (
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var errInvalidSignature = errors.New("invalid action signature")

const signPrefix = "\x19DUMP Signed Action:\n"

// SignedAction is an action authorised by the holder of a secp256k1 key.
type SignedAction struct {
	Data      hexutil.Bytes  `json:"data"`
	Value     *hexutil.Big   `json:"value,omitempty"`
	Nonce     hexutil.Uint64 `json:"nonce"`
	Signature hexutil.Bytes  `json:"signature"`
}

// ActionHash returns the digest a signer commits to:
// keccak256(prefix || nonce || value || data).
func ActionHash(nonce uint64, value *big.Int, data []byte) common.Hash {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	if value == nil {
		value = new(big.Int)
	}
	return crypto.Keccak256Hash([]byte(signPrefix), n[:], common.BigToHash(value).Bytes(), data)
}

func (a *SignedAction) value() *big.Int {
	if a.Value == nil {
		return new(big.Int)
	}
	return a.Value.ToInt()
}

// Sender recovers the address that signed a.
func (a *SignedAction) Sender() (common.Address, error) {
	if len(a.Signature) != crypto.SignatureLength {
		return common.Address{}, errInvalidSignature
	}
	v := a.value()
	if v.Sign() < 0 {
		return common.Address{}, errInvalidSignature
	}
	hash := ActionHash(uint64(a.Nonce), v, a.Data)
	pub, err := crypto.SigToPub(hash[:], a.Signature)
	if err != nil {
		return common.Address{}, errInvalidSignature
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// SignAction builds a SignedAction for data with key.
func SignAction(key *ecdsa.PrivateKey, nonce uint64, value *big.Int, data []byte) (*SignedAction, error) {
	hash := ActionHash(nonce, value, data)
	sig, err := crypto.Sign(hash[:], key)
	if err != nil {
		return nil, err
	}
	a := &SignedAction{Data: data, Nonce: hexutil.Uint64(nonce), Signature: sig}
	if value != nil && value.Sign() > 0 {
		a.Value = (*hexutil.Big)(new(big.Int).Set(value))
	}
	return a, nil
}
