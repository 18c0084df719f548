package opstate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_StartsIdle(t *testing.T) {
	tr := New()
	assert.Equal(t, LoadingState{Status: Idle}, tr.State())
	assert.Empty(t, tr.InFlight())
}

func TestTracker_BeginSucceed(t *testing.T) {
	tr := New()
	h := tr.Begin("login")

	assert.True(t, tr.State().Is(Loading, "login"))
	assert.True(t, tr.IsRunning("login"))

	h.Succeed()

	assert.True(t, tr.State().Is(Succeeded, "login"))
	assert.False(t, tr.IsRunning("login"))
	res, ok := tr.Last("login")
	require.True(t, ok)
	assert.Equal(t, Succeeded, res.Status)
	assert.Equal(t, h.ID(), res.ID)
}

func TestTracker_FailRecordsMessage(t *testing.T) {
	tr := New()
	tr.Begin("getUser").Fail("No token found")

	st := tr.State()
	assert.True(t, st.Is(Failed, "getUser"))
	assert.Equal(t, "No token found", st.Error)

	tr.ClearError()
	assert.Empty(t, tr.State().Error)
	assert.Equal(t, Failed, tr.State().Status)
}

func TestTracker_StaleSettleDoesNotOverwriteNewer(t *testing.T) {
	tr := New()
	first := tr.Begin("fetchGroups")
	second := tr.Begin("fetchPasswords")

	// The older operation settles after the newer one began.
	first.Fail("boom")
	assert.True(t, tr.State().Is(Loading, "fetchPasswords"), "older settle must not clobber newer loading state")

	second.Succeed()
	assert.True(t, tr.State().Is(Succeeded, "fetchPasswords"))

	// The older result is still observable per operation.
	res, ok := tr.Last("fetchGroups")
	require.True(t, ok)
	assert.Equal(t, Failed, res.Status)
	assert.Equal(t, "boom", res.Error)
}

func TestTracker_LastKeepsNewestInstancePerName(t *testing.T) {
	tr := New()
	older := tr.Begin("addPassword")
	newer := tr.Begin("addPassword")

	newer.Succeed()
	older.Fail("late failure")

	res, ok := tr.Last("addPassword")
	require.True(t, ok)
	assert.Equal(t, newer.ID(), res.ID)
	assert.Equal(t, Succeeded, res.Status)
}

func TestTracker_SettleTwiceIsNoop(t *testing.T) {
	tr := New()
	h := tr.Begin("logout")
	h.Succeed()
	h.Fail("ignored")

	assert.True(t, tr.State().Is(Succeeded, "logout"))
}

func TestTracker_InFlightOrder(t *testing.T) {
	tr := New()
	a := tr.Begin("a")
	tr.Begin("b")
	tr.Begin("c")
	a.Succeed()

	ops := tr.InFlight()
	require.Len(t, ops, 2)
	assert.Equal(t, "b", ops[0].Name)
	assert.Equal(t, "c", ops[1].Name)
}

func TestTracker_ResetIgnoresEarlierSettles(t *testing.T) {
	tr := New()
	h := tr.Begin("login")
	tr.Reset()
	h.Succeed()

	assert.Equal(t, LoadingState{Status: Idle}, tr.State())
}

func TestTracker_ConcurrentUse(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h := tr.Begin("op")
			if i%2 == 0 {
				h.Succeed()
			} else {
				h.Fail("x")
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, tr.InFlight())
	assert.NotEqual(t, Loading, tr.State().Status)
}
