package schema

// Document is one unit of content to be pushed to the remote domain.
// Field keys are abstract field names; values are scalars or flat
// sequences of scalars.
type Document struct {
	ID     string
	Kind   string
	Fields map[string]interface{}
}

// SyncResult summarizes one synchronization pass. Per-field failures do
// not abort a pass; they are counted here and the first underlying
// error is retained for reporting.
type SyncResult struct {
	Added     int
	Updated   int
	Deleted   int
	Failed    int
	Reindexed bool
	FirstErr  error
}

// Changed reports how many structural operations the pass issued.
func (r SyncResult) Changed() int {
	return r.Added + r.Updated + r.Deleted
}
