package query

import (
	"encoding/json"
	"fmt"
)

// Tag labels cached results and mutations. An empty ID is a coarse tag that
// overlaps every tag of the same Type.
type Tag struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// Coarse returns a tag covering every ID of typ.
func Coarse(typ string) Tag {
	return Tag{Type: typ}
}

// Tagged returns a parameterized tag.
func Tagged(typ string, id any) Tag {
	return Tag{Type: typ, ID: fmt.Sprint(id)}
}

// Overlaps reports whether invalidating t affects o (and vice versa).
func (t Tag) Overlaps(o Tag) bool {
	if t.Type != o.Type {
		return false
	}
	return t.ID == "" || o.ID == "" || t.ID == o.ID
}

func (t Tag) String() string {
	if t.ID == "" {
		return t.Type
	}
	return t.Type + ":" + t.ID
}

func overlapsAny(provided, invalidated []Tag) bool {
	for _, p := range provided {
		for _, i := range invalidated {
			if p.Overlaps(i) {
				return true
			}
		}
	}
	return false
}

// Key identifies one cached result: an operation name plus its encoded argument.
type Key struct {
	Operation string
	Arg       string
}

// NewKey encodes arg as JSON so equal arguments produce equal keys.
func NewKey(operation string, arg any) Key {
	data, err := json.Marshal(arg)
	if err != nil {
		return Key{Operation: operation, Arg: fmt.Sprintf("%#v", arg)}
	}
	return Key{Operation: operation, Arg: string(data)}
}

func (k Key) String() string {
	return k.Operation + "(" + k.Arg + ")"
}
