package types

import (
	"github.com/erigontech/erigon-core/erigon-lib/common"
	"github.com/erigontech/erigon-core/rlp"
)

// BlockHeader is the portion of a block header this module persists and
// verifies. Fields a full client would also carry (bloom, extra data,
// base fee) are out of scope per spec.md's Non-goals around block
// execution and state-trie hashing; what remains is exactly what the
// header-download stage needs to build a chain and what a consensus
// engine needs to validate a seal.
type BlockHeader struct {
	ParentHash  common.Hash
	Number      common.BlockNumber
	Difficulty  uint64
	GasLimit    uint64
	GasUsed     uint64
	Time        uint64
	Beneficiary common.Address
	// Seal carries the consensus-specific sealing fields (e.g. extra data
	// plus signature for clique-style engines) as an opaque blob; this
	// module never interprets it beyond handing it to consensus.Engine.
	Seal []byte
}

func (h *BlockHeader) Hash() common.Hash {
	enc, err := h.EncodeRLP()
	if err != nil {
		return common.Hash{}
	}
	return keccak256(enc)
}

func (h *BlockHeader) EncodeRLP() ([]byte, error) {
	return rlp.EncodeList(
		rlp.EncodeBytes(h.ParentHash.Bytes()),
		rlp.EncodeUint64(uint64(h.Number)),
		rlp.EncodeUint64(h.Difficulty),
		rlp.EncodeUint64(h.GasLimit),
		rlp.EncodeUint64(h.GasUsed),
		rlp.EncodeUint64(h.Time),
		rlp.EncodeBytes(h.Beneficiary.Bytes()),
		rlp.EncodeBytes(h.Seal),
	), nil
}

func (h *BlockHeader) DecodeRLP(s *rlp.Stream) error {
	parentHash, err := s.Bytes()
	if err != nil {
		return err
	}
	number, err := s.Uint64()
	if err != nil {
		return err
	}
	difficulty, err := s.Uint64()
	if err != nil {
		return err
	}
	gasLimit, err := s.Uint64()
	if err != nil {
		return err
	}
	gasUsed, err := s.Uint64()
	if err != nil {
		return err
	}
	t, err := s.Uint64()
	if err != nil {
		return err
	}
	beneficiary, err := s.Bytes()
	if err != nil {
		return err
	}
	seal, err := s.Bytes()
	if err != nil {
		return err
	}
	h.ParentHash = common.BytesToHash(parentHash)
	h.Number = common.BlockNumber(number)
	h.Difficulty = difficulty
	h.GasLimit = gasLimit
	h.GasUsed = gasUsed
	h.Time = t
	h.Beneficiary = common.BytesToAddress(beneficiary)
	h.Seal = seal
	return s.ListEnd()
}

func DecodeHeader(data []byte) (*BlockHeader, error) {
	h := new(BlockHeader)
	if err := rlp.DecodeBytes(data, h); err != nil {
		return nil, err
	}
	return h, nil
}
