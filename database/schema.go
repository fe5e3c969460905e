package database

var (
	// headBlockKey tracks the latest known block's hash.
	headBlockKey = []byte("LastBlock")

	headerPrefix = []byte("h")

	headerHashSuffix = []byte("n") // headerPrefix + num (uint64 big endian) + headerHashSuffix -> hash

	schedulePrefix = []byte("ps") // schedulePrefix + version (uint64 big endian) -> schedule
)
