package types

import (
	"golang.org/x/crypto/sha3"

	"github.com/erigontech/erigon-core/erigon-lib/common"
)

func keccak256(data ...[]byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out common.Hash
	copy(out[:], h.Sum(nil))
	return out
}
