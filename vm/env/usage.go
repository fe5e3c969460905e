package env

import (
	"fmt"

	"github.com/aggregion/agrio.contracts/vm/costs"
)

// UsageExceededError is the panic value raised when an action writes more state than allowed.
type UsageExceededError struct {
	Used  int
	Limit int
}

func (e *UsageExceededError) Error() string {
	return fmt.Sprintf("state usage %v exceeds limit %v", e.Used, e.Limit)
}

// UsageCounter meters the state bytes an action touches.
type UsageCounter struct {
	UsedBytes int
	limit     int
}

func (g *UsageCounter) add(size int) {
	g.UsedBytes += size
	if g.limit >= 0 && g.limit < g.UsedBytes {
		panic(&UsageExceededError{Used: g.UsedBytes, Limit: g.limit})
	}
}

func (g *UsageCounter) AddWrittenBytes(size int) {
	g.add(size * costs.WriteStatePerByte)
}

func (g *UsageCounter) AddReadBytes(size int) {
	g.add(size * costs.ReadStatePerByte)
}

// Reset starts a new metering window; a negative limit disables the check.
func (g *UsageCounter) Reset(limit int) {
	g.UsedBytes = 0
	g.limit = limit
}
