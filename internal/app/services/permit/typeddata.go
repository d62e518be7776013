// Package permit implements gasless allowance approvals: an owner signs a
// typed message off-chain and anybody may submit it to set the allowance.
// The signing domain and struct layout follow EIP-712 and EIP-2612.
package permit

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/SLC-Network/token_layer/internal/app/domain/token"
)

var (
	domainTypehash = crypto.Keccak256Hash(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
	)
	permitTypehash = crypto.Keccak256Hash(
		[]byte("Permit(address owner,address spender,uint256 value,uint256 nonce,uint256 deadline)"),
	)
)

// Signature is a 65-byte secp256k1 signature in its (v, r, s) split form,
// with v in {27, 28}.
type Signature struct {
	V uint8
	R [32]byte
	S [32]byte
}

// DomainSeparator derives the EIP-712 domain hash for the token.
func DomainSeparator(meta token.Metadata) common.Hash {
	chainID := uint256.NewInt(meta.ChainID)
	return crypto.Keccak256Hash(
		domainTypehash.Bytes(),
		crypto.Keccak256([]byte(meta.Name)),
		crypto.Keccak256([]byte(meta.Version)),
		bytes32(chainID),
		padAddress(meta.Contract),
	)
}

// Digest computes the signing hash for one permit message.
func Digest(meta token.Metadata, owner, spender common.Address, value *uint256.Int, nonce, deadline uint64) common.Hash {
	structHash := crypto.Keccak256(
		permitTypehash.Bytes(),
		padAddress(owner),
		padAddress(spender),
		bytes32(value),
		bytes32(uint256.NewInt(nonce)),
		bytes32(uint256.NewInt(deadline)),
	)
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, DomainSeparator(meta).Bytes(), structHash)
}

// RecoverSigner returns the address that produced sig over digest. Malleable
// signatures (s in the upper half of the curve order) are rejected.
func RecoverSigner(digest common.Hash, sig Signature) (common.Address, error) {
	if sig.V != 27 && sig.V != 28 {
		return common.Address{}, token.InvalidSignature("recovery id %d out of range", sig.V)
	}
	r := new(big.Int).SetBytes(sig.R[:])
	s := new(big.Int).SetBytes(sig.S[:])
	if !crypto.ValidateSignatureValues(sig.V-27, r, s, true) {
		return common.Address{}, token.InvalidSignature("malleable or out-of-range signature values")
	}

	raw := make([]byte, 65)
	copy(raw[:32], sig.R[:])
	copy(raw[32:64], sig.S[:])
	raw[64] = sig.V - 27

	pub, err := crypto.SigToPub(digest.Bytes(), raw)
	if err != nil {
		return common.Address{}, token.InvalidSignature("signature recovery failed: %v", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func bytes32(v *uint256.Int) []byte {
	b := v.Bytes32()
	return b[:]
}

func padAddress(addr common.Address) []byte {
	var out [32]byte
	copy(out[12:], addr.Bytes())
	return out[:]
}
