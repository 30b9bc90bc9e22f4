package job

import "sync"

// MemoryRegistry keeps job state in a process-local map. Good for a single
// instance; swap in the sqlite registry when state must outlive the process.
type MemoryRegistry struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{jobs: make(map[string]Job)}
}

func (r *MemoryRegistry) Create(j Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[j.ID]; exists {
		return ErrDuplicateJob
	}
	r.jobs[j.ID] = j
	return nil
}

func (r *MemoryRegistry) Get(id string) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return j, nil
}

func (r *MemoryRegistry) Update(id string, p Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	p.Apply(&j)
	r.jobs[id] = j
	return nil
}
