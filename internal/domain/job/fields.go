package job

// Patchable project fields, by registry field name.
const (
	FieldStage      = "Stage"
	FieldStatus     = "Status"
	FieldLiveDate   = "Live Date"
	FieldWithClient = "With Client?"
)

// Journal-only keys that may appear beside project fields in a classifier
// reply but never reach a project patch.
const (
	FieldUpdate    = "Update"
	FieldUpdateDue = "Update due"
)

var patchable = map[string]bool{
	FieldStage:      true,
	FieldStatus:     true,
	FieldLiveDate:   true,
	FieldWithClient: true,
}

// Patch is a requested change to project fields keyed by registry field name.
type Patch map[string]any

// Allowed returns the subset of p that may be written to a project. Unknown
// keys and nil values are dropped.
func (p Patch) Allowed() Patch {
	out := Patch{}
	for key, value := range p {
		if value == nil || !patchable[key] {
			continue
		}
		out[key] = value
	}
	return out
}

// WithoutJournal returns p minus the journal-only keys.
func (p Patch) WithoutJournal() Patch {
	out := Patch{}
	for key, value := range p {
		if key == FieldUpdate || key == FieldUpdateDue {
			continue
		}
		out[key] = value
	}
	return out
}
