package client

import (
	"encoding/json"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Todo is a well-formed Todo entity as the service represents it.
type Todo struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

func (t Todo) String() string {
	data, _ := json.Marshal(t)
	return string(data)
}

// TodoFields describes a request body in which any property may be omitted or
// given a value of an arbitrary JSON type. Tests use it to express invalid
// payloads — a missing id, a string where a number belongs — that the Todo
// struct cannot represent. A field whose value is the zero Value (JSON null)
// is omitted from the marshalled object entirely.
type TodoFields struct {
	ID        ldvalue.Value
	Text      ldvalue.Value
	Completed ldvalue.Value
}

// Fields converts a well-formed Todo into the loose representation, for tests
// that start from a valid payload and then knock out one property.
func (t Todo) Fields() TodoFields {
	return TodoFields{
		ID:        ldvalue.Float64(float64(t.ID)),
		Text:      ldvalue.String(t.Text),
		Completed: ldvalue.Bool(t.Completed),
	}
}

func (f TodoFields) MarshalJSON() ([]byte, error) {
	b := ldvalue.ObjectBuild()
	if !f.ID.IsNull() {
		b.Set("id", f.ID)
	}
	if !f.Text.IsNull() {
		b.Set("text", f.Text)
	}
	if !f.Completed.IsNull() {
		b.Set("completed", f.Completed)
	}
	return json.Marshal(b.Build())
}
