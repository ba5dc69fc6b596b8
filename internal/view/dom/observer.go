package dom

import "golang.org/x/net/html"

// MutationType identifies the kind of a MutationRecord.
type MutationType uint8

const (
	// MutationCharacterData reports a changed text node value.
	MutationCharacterData MutationType = iota + 1

	// MutationChildList reports added or removed children.
	MutationChildList
)

// String returns the DOM name of the mutation type.
func (m MutationType) String() string {
	switch m {
	case MutationCharacterData:
		return "characterData"
	case MutationChildList:
		return "childList"
	default:
		return "unknown"
	}
}

// MutationRecord describes one observed change to the tree. For
// childList records Target is the parent and the siblings are those around
// the added or removed node at the time of the change.
type MutationRecord struct {
	Type            MutationType
	Target          *html.Node
	Added           []*html.Node
	Removed         []*html.Node
	PreviousSibling *html.Node
	NextSibling     *html.Node
	OldValue        string
}

// Observer queues mutation records while active. Records are delivered in
// batches through TakeRecords; Pending reports whether a batch is waiting.
type Observer struct {
	active  bool
	records []MutationRecord
	notify  func()
}

// Start begins recording.
func (o *Observer) Start() {
	o.active = true
}

// Stop stops recording. Records already queued are kept.
func (o *Observer) Stop() {
	o.active = false
}

// Active reports whether the observer is recording.
func (o *Observer) Active() bool {
	return o.active
}

// OnPending sets a callback run when the first record of a batch arrives.
func (o *Observer) OnPending(f func()) {
	o.notify = f
}

// Pending reports whether records are waiting to be taken.
func (o *Observer) Pending() bool {
	return len(o.records) > 0
}

// TakeRecords returns the queued records and empties the queue.
func (o *Observer) TakeRecords() []MutationRecord {
	recs := o.records
	o.records = nil
	return recs
}

func (o *Observer) record(rec MutationRecord) {
	if !o.active {
		return
	}
	first := len(o.records) == 0
	o.records = append(o.records, rec)
	if first && o.notify != nil {
		o.notify()
	}
}
