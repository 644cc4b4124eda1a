package kv

// CoreTables lists every table this module populates: canonical-chain
// accessors, the deprecated plain-state tables, and the bitmap-chunk/
// change-set history index. The teacher's full chaindata table list also
// carries tables for subsystems outside this module's scope (Bor, Caplin,
// verkle, witnesses, domains beyond accounts/storage/code); those were
// trimmed from tables.go rather than kept unused.
var CoreTables = []string{
	HeaderNumber,
	BadHeaderNumber,
	HeaderCanonical,
	Headers,
	HeaderTD,
	BlockBody,
	EthTx,
	EthTxSender,
	TxLookup,
	Senders,
	SyncStageProgress,

	PlainState,
	PlainContractCode,
	AccountChangeSetDeprecated,
	StorageChangeSetDeprecated,
	E2AccountsHistory,
	E2StorageHistory,
}

// CoreTablesCfg carries the DupSort/AutoDupSortKeysConversion flags this
// module's tables need, mirroring the corresponding entries the teacher
// carries in its own chaindata table config.
var CoreTablesCfg = TableCfg{
	PlainState: {
		Flags:                     DupSort,
		AutoDupSortKeysConversion: true,
		DupFromLen:                60,
		DupToLen:                  28,
	},
	AccountChangeSetDeprecated: {Flags: DupSort},
	StorageChangeSetDeprecated: {Flags: DupSort},
	E2AccountsHistory:          {Flags: Default},
	E2StorageHistory:           {Flags: Default},
}
