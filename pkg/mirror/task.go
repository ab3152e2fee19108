package mirror

import "github.com/sdejongh/syncmirror/pkg/compare"

// Task pairs a source directory with the destination directory it mirrors.
// Paths are relative to the backend roots.
type Task struct {
	SourceDir string
	DestDir   string

	// Snapshot is computed when the task is popped if not already set
	Snapshot *compare.Snapshot
}

// worklist is a LIFO stack of pending tasks.
// Traversal depth lives here instead of on the call stack.
type worklist []Task

func (w *worklist) Push(t Task) {
	*w = append(*w, t)
}

func (w *worklist) Pop() Task {
	old := *w
	t := old[len(old)-1]
	old[len(old)-1] = Task{}
	*w = old[:len(old)-1]
	return t
}

func (w worklist) Len() int {
	return len(w)
}
