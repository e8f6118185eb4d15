package tele

import (
	"sync"
)

// Low priority counters. Sent with Report and reset after.
type Stat struct { //nolint:maligned
	sync.Mutex
	Commands          uint32
	PeripheralSent    uint32
	PeripheralDropped uint32
	CommitFull        uint32
	CommitPartial     uint32
	CommitError       uint32
}

// Caller must hold self.Mutex.
func (self *Stat) Locked_Reset() {
	self.Commands = 0
	self.PeripheralSent = 0
	self.PeripheralDropped = 0
	self.CommitFull = 0
	self.CommitPartial = 0
	self.CommitError = 0
}
