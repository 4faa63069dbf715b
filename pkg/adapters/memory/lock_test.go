package memory

import (
	"testing"

	"github.com/aretw0/remodel/internal/testutils"
	"github.com/aretw0/remodel/pkg/ports"
)

func TestCooldownLock_Contract(t *testing.T) {
	clock := testutils.NewFakeClock()
	ports.RunCooldownLockContract(t, NewCooldownLock(clock), clock.Advance)
}
