package memory

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ConcurrentUse(t *testing.T) {
	m := newTestManager(t, nil)

	const writers = 8
	const rounds = 25

	var wg sync.WaitGroup
	errCh := make(chan error, writers*rounds)

	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range rounds {
				p, err := m.CreateProcess(fmt.Sprintf("w%d-%d", w, r), 32+(w*r)%200, 1+r%10)
				if err != nil {
					errCh <- err
					return
				}
				if err := m.Allocate(p.ID); err != nil && !errors.Is(err, ErrCapacityExceeded) {
					errCh <- err
					return
				}
				if r%3 == 0 {
					if err := m.Terminate(p.ID); err != nil {
						errCh <- err
						return
					}
				}
				if w == 0 && r == rounds/2 {
					if _, err := m.SetStrategy(StrategySegmentation); err != nil {
						errCh <- err
						return
					}
				}
			}
		}()
	}

	stop := make(chan struct{})
	var readers sync.WaitGroup
	for range 4 {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				st := m.Stats()
				if st.UsedMemory+st.FreeMemory != st.TotalMemory {
					errCh <- fmt.Errorf("inconsistent stats: %+v", st)
					return
				}
				_ = m.Segments()
				_ = m.PageOwners()
				_ = m.ActiveProcesses()
			}
		}()
	}

	wg.Wait()
	close(stop)
	readers.Wait()
	close(errCh)

	for err := range errCh {
		assert.NoError(t, err)
	}

	require.Equal(t, StrategySegmentation, m.Strategy())
	assertConsistent(t, m)

	used := 0
	for _, p := range m.ActiveProcesses() {
		used += p.Size
	}
	assert.Equal(t, used, m.Stats().UsedMemory, "segmentation uses exactly the active sizes")
}
