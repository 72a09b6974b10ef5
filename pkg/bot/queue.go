package bot

import "sync"

// Queue serializes work per session id: a user's turns run strictly one
// after another while different users proceed in parallel. Each session
// gets a lazily started drain goroutine that exits once its mailbox is
// empty, so idle sessions cost a small struct and nothing more.
type Queue struct {
	mu      sync.Mutex
	workers map[string]*worker
}

type worker struct {
	mu      sync.Mutex
	pending []func()
	running bool
}

func NewQueue() *Queue {
	return &Queue{workers: make(map[string]*worker)}
}

// Submit appends the job to the session's mailbox, starting a drainer if
// none is running. FIFO order per session is guaranteed.
func (q *Queue) Submit(id string, job func()) {
	q.mu.Lock()
	w, ok := q.workers[id]
	if !ok {
		w = &worker{}
		q.workers[id] = w
	}
	q.mu.Unlock()

	w.mu.Lock()
	w.pending = append(w.pending, job)
	start := !w.running
	if start {
		w.running = true
	}
	w.mu.Unlock()

	if start {
		go w.drain()
	}
}

// Flush blocks until every mailbox known at call time has drained past a
// barrier job.
func (q *Queue) Flush() {
	q.mu.Lock()
	ids := make([]string, 0, len(q.workers))
	for id := range q.workers {
		ids = append(ids, id)
	}
	q.mu.Unlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		q.Submit(id, wg.Done)
	}
	wg.Wait()
}

func (w *worker) drain() {
	for {
		w.mu.Lock()
		if len(w.pending) == 0 {
			w.running = false
			w.mu.Unlock()
			return
		}
		job := w.pending[0]
		w.pending = w.pending[1:]
		w.mu.Unlock()

		job()
	}
}
