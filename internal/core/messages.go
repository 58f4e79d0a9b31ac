package core

// ErrorMessages holds the user-facing failure message per action.
type ErrorMessages [actionCount]string

// Get returns the message for a, or "" when a is out of range.
func (m ErrorMessages) Get(a Action) string {
	if a < 0 || a >= actionCount {
		return ""
	}
	return m[a]
}

// resolveMessages fills each slot from the TypeSpec's own declarations first,
// then from the nearest ancestor that declares it. Slots nobody declares
// stay empty.
func resolveMessages(spec *TypeSpec) ErrorMessages {
	var out ErrorMessages
	if spec == nil {
		return out
	}
	var inherited ErrorMessages
	if spec.Parent != nil {
		inherited = resolveMessages(spec.Parent)
	}
	for a := ActionUnknown; a < actionCount; a++ {
		if msg, ok := spec.Messages[a]; ok && msg != "" {
			out[a] = msg
			continue
		}
		out[a] = inherited[a]
	}
	return out
}

// BusinessObjectSpec is the root of every mapped hierarchy. It declares no
// fields, only the default failure messages.
var BusinessObjectSpec = TypeSpec{
	Name: "BusinessObject",
	Messages: map[Action]string{
		ActionLoadObject:   "Can't load selected object - the database is corrupted",
		ActionLoadObjects:  "Can't load objects - the database is corrupted",
		ActionSaveObject:   "Values you've entered are either empty or invalid",
		ActionDeleteObject: "Can't delete object while there are references on it",
	},
}
