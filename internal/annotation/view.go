package annotation

import "github.com/jdziat/langfuse-annotator/pkg/types"

// View is a snapshot of the workspace for presentation.
type View struct {
	QueueID     string                 `json:"queueId"`
	Queue       *types.AnnotationQueue `json:"queue"`
	State       State                  `json:"state"`
	Position    int                    `json:"position"`
	Total       int                    `json:"total"`
	Item        *types.QueueItem       `json:"item"`
	PrevItemID  string                 `json:"prevItemId,omitempty"`
	NextItemID  string                 `json:"nextItemId,omitempty"`
	Completed   bool                   `json:"completed"`
	CompletedAt *types.Time            `json:"completedAt,omitempty"`
	Messages    []ChatMessage          `json:"messages"`
	Scores      []types.Score          `json:"scores"`
	Controls    []Control              `json:"controls,omitempty"`
	Selected    map[string]float64     `json:"selected,omitempty"`
	Comment     string                 `json:"comment,omitempty"`
	Missing     []string               `json:"missing,omitempty"`
	CanSubmit   bool                   `json:"canSubmit"`
}

// View returns a snapshot of the current item and its score panel.
// Completed items carry no controls.
func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := View{
		QueueID:  w.queueID,
		Queue:    w.queue,
		State:    w.state,
		Total:    len(w.items),
		Messages: []ChatMessage{},
		Scores:   []types.Score{},
	}
	idx, item, ok := w.currentLocked()
	if !ok {
		return v
	}
	v.Position = idx + 1
	v.Item = &item
	if idx > 0 {
		v.PrevItemID = w.items[idx-1].ID
	}
	if idx < len(w.items)-1 {
		v.NextItemID = w.items[idx+1].ID
	}
	if w.detail.ItemID == item.ID {
		v.Messages = w.detail.Messages
		v.Scores = w.detail.Scores
	}

	if item.IsCompleted() {
		v.Completed = true
		v.CompletedAt = item.CompletedAt
		return v
	}
	entry := w.ensureEntryLocked(item.ID)
	v.Controls = entry.Controls()
	v.Selected = entry.Values()
	v.Comment = entry.Comment()
	for _, cfg := range entry.Missing() {
		v.Missing = append(v.Missing, cfg.Name)
	}
	v.CanSubmit = len(v.Missing) == 0
	return v
}
