package domain

import (
	"strconv"
	"time"
)

// ElementType is the OSM primitive kind.
type ElementType string

const (
	TypeNode     ElementType = "node"
	TypeWay      ElementType = "way"
	TypeRelation ElementType = "relation"
)

// Tag is a single OSM key/value pair. Order follows the source document.
type Tag struct {
	Key   string
	Value string
}

// Member is a relation member reference.
type Member struct {
	Type string `json:"type" bson:"type"`
	Ref  int64  `json:"ref" bson:"ref"`
	Role string `json:"role" bson:"role"`
}

// Element is a parsed OSM node, way or relation.
type Element struct {
	Type      ElementType
	ID        int64
	Timestamp time.Time
	User      string
	UserID    int64

	// Node coordinates.
	Lat float64
	Lon float64

	// Way node references.
	Nodes []int64

	// Relation members.
	Members []Member

	Tags []Tag
}

// Key identifies the element as "type/id", e.g. "way/4711".
func (e *Element) Key() string {
	return string(e.Type) + "/" + strconv.FormatInt(e.ID, 10)
}

// Tag returns the value of the first tag with the given key.
func (e *Element) Tag(key string) (string, bool) {
	for _, t := range e.Tags {
		if t.Key == key {
			return t.Value, true
		}
	}
	return "", false
}
