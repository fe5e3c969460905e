package costs

// State usage is metered in bytes; writes weigh more than reads.
const ReadStatePerByte = 1
const WriteStatePerByte = 2

// MaxActionUsage bounds the state usage of one action.
const MaxActionUsage = 4 * 1024 * 1024

// MaxDeferredUsage bounds the state usage of one deferred transaction.
const MaxDeferredUsage = 1024 * 1024

// MaxBlockUsage bounds the total state usage of a block's actions.
const MaxBlockUsage = 64 * 1024 * 1024
