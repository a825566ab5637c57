package ws

import (
	"sync"
	"testing"
)

func TestEnqueue_RacesWithClose(t *testing.T) {
	t.Parallel()
	c := testClient("u1")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 2000; j++ {
				c.enqueue([]byte("x"))
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.close()
	}()
	wg.Wait()

	// enqueue and close after close stay no-ops
	c.enqueue([]byte("late"))
	c.close()
}
