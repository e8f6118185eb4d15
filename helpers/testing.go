package helpers

import (
	"math/rand"
	"testing"
	"time"
)

// RandUnix logs seed so failed randomized test can be reproduced with RandSeed.
func RandUnix(t testing.TB) *rand.Rand {
	seed := time.Now().UnixNano()
	t.Logf("rand seed=%d", seed)
	return RandSeed(seed)
}

func RandSeed(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
