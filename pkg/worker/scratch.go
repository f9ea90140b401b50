package worker

// Scratch is storage private to one worker. Every task run by the same worker
// receives the same Scratch, and no other worker ever sees it, so it needs no
// locking. Do not retain it past the end of the task.
type Scratch struct {
	workerID int
	tasksRun int
	values   map[string]any
}

func newScratch(workerID int) *Scratch {
	return &Scratch{
		workerID: workerID,
		values:   make(map[string]any),
	}
}

// WorkerID returns the id of the owning worker
func (s *Scratch) WorkerID() int {
	return s.workerID
}

// TasksRun returns how many tasks the owning worker started before this one
func (s *Scratch) TasksRun() int {
	return s.tasksRun
}

// Get returns the value stored under key
func (s *Scratch) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key
func (s *Scratch) Set(key string, value any) {
	s.values[key] = value
}

// Delete removes key
func (s *Scratch) Delete(key string) {
	delete(s.values, key)
}

// Len returns the number of stored keys
func (s *Scratch) Len() int {
	return len(s.values)
}
