// Copyright 2021 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package kv

// DBSchemaVersion versions list
// 7.0 - trimmed down to the canonical-chain, plain-state and history tables
// this core actually populates; everything else (Bor, Caplin, verkle,
// witnesses, tx-pool, sentry, recon) lives outside this core's scope.
var DBSchemaVersion = struct{ Major, Minor, Patch uint32 }{Major: 7, Minor: 0, Patch: 0}

const (
	// Naming:
	//   HeaderNumber - Ethereum-specific block number. All nodes have same BlockNum.
	//   HeaderID - auto-increment ID. Depends on order in which node see headers.
	//      Invariant: for all headers in snapshots Number == ID. It means no reason to store Num/ID for this headers in DB.
	HeaderNumber    = "HeaderNumber"           // header_hash -> header_num_u64
	BadHeaderNumber = "BadHeaderNumber"        // header_hash -> header_num_u64
	HeaderCanonical = "CanonicalHeader"        // block_num_u64 -> header hash
	Headers         = "Header"                 // block_num_u64 + hash -> header (RLP)
	HeaderTD        = "HeadersTotalDifficulty" // block_num_u64 + hash -> td (RLP)

	BlockBody = "BlockBody" // block_num_u64 + hash -> block body

	// EthTx stores every transaction, keyed by an auto-increment tx id
	// rather than hash, so a block's transactions sit contiguously.
	EthTx = "BlockTransaction" // tx_id_u64 -> rlp(tx)

	TxLookup = "BlockTransactionLookup" // hash -> transaction lookup metadata

	Senders = "TxSender" // block_num_u64 + blockHash -> sendersList (no serialization format, every 20 bytes is new sender)

	// EthTxSender stores the sender recovered for each transaction, keyed
	// the same way as EthTx (auto-increment tx id) so a contiguous range
	// of senders can be walked starting from any tx id, independent of
	// the whole-block lookup Senders provides.
	EthTxSender = "TransactionSender" // tx_id_u64 -> sender address (20 bytes)

	// SyncStageProgress tracks how far each staged-sync stage has advanced.
	SyncStageProgress = "SyncStage" // stageName -> stageData
)

// PlainContractCode -
// key - address+incarnation
// value - code hash
const PlainContractCode = "PlainCodeHash"

const (
	/* PlainState logical layout:
		Key:      address (unless incarnation>0, then address+incarnation)
		Value:    account encoded for storage (nonce, balance, code hash, incarnation) or, for storage, a trie leaf

	   	"Plain State" - state where keys aren't hashed. "CurrentState" (hashed,
	   	used for Merkle root calculation) belongs to a different subsystem not
	   	implemented by this core.

	   	PlainState and the two deprecated change-set tables below utilise the
	   	DupSort feature (multiple values stored under one key) to keep a
	   	block's full delta contiguous on disk.
	*/
	PlainState = "PlainState"

	/* AccountChangeSetDeprecated, StorageChangeSetDeprecated:
	   	key - block number
	   	value (dup-sorted) - address (+ incarnation, for storage) followed by
	   	the pre-block value, i.e. what PlainState held immediately *before*
	   	the block at that key executed.

	   	To query "as of block N": seek >= N in the change-set; the first
	   	match found is exactly the pre-block-N value. If no change-set entry
	   	exists at or after N for that subject, the value hasn't changed since
	   	and PlainState holds the answer.
	*/
	AccountChangeSetDeprecated = "AccountChangeSet"
	StorageChangeSetDeprecated = "StorageChangeSet"

	/* E2AccountsHistory, E2StorageHistory:
	   	key - address (+ storage key hash, for storage) + upper bound of a
	   	2048-byte-chunked bitmap of block numbers at which the subject
	   	changed.
	   	value - RoaringBitmap-encoded chunk.

	   	This is the first-level index `core/state/history` consults before
	   	falling through to the change-set itself.
	*/
	E2AccountsHistory = "AccountHistory"
	E2StorageHistory  = "StorageHistory"
)

type CmpFunc func(k1, k2, v1, v2 []byte) int

type TableCfg map[string]TableCfgItem

type TableFlags uint

const (
	Default    TableFlags = 0x00
	ReverseKey TableFlags = 0x02
	DupSort    TableFlags = 0x04
	IntegerKey TableFlags = 0x08
	IntegerDup TableFlags = 0x20
	ReverseDup TableFlags = 0x40
)

type TableCfgItem struct {
	Flags TableFlags

	// AutoDupSortKeysConversion enables a key transformation that lets a
	// caller write a long composite key without manually splitting it: if
	// the provided key is DupFromLen bytes long, it is rewritten as
	//   v = append(k[DupToLen:], v...)
	//   k = k[:DupToLen]
	// before the write, converting a flat key into a DupSort key+value
	// pair. Only takes effect when AutoDupSortKeysConversion is true.
	AutoDupSortKeysConversion bool
	DupFromLen                int
	DupToLen                  int
}
