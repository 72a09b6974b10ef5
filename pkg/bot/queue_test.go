package bot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueueSerializesPerID(t *testing.T) {
	q := NewQueue()

	var mu sync.Mutex
	got := make(map[string][]int)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		q.Submit("user-1", func() {
			defer wg.Done()
			mu.Lock()
			got["user-1"] = append(got["user-1"], i)
			mu.Unlock()
		})
	}
	wg.Wait()

	// Strict FIFO for one id.
	for i, v := range got["user-1"] {
		assert.Equal(t, i, v)
	}
}

func TestQueueRunsIDsConcurrently(t *testing.T) {
	q := NewQueue()

	// A blocked worker for one id must not stall another id.
	release := make(chan struct{})
	blocked := make(chan struct{})
	q.Submit("slow", func() {
		close(blocked)
		<-release
	})
	<-blocked

	done := make(chan struct{})
	q.Submit("fast", func() { close(done) })
	<-done

	close(release)
	q.Flush()
}

func TestQueueFlushEmpty(t *testing.T) {
	q := NewQueue()
	// Flushing with no workers must not block.
	q.Flush()
}
