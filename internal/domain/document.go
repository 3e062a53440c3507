package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// DocumentID is the compound primary key of an imported element.
type DocumentID struct {
	Type ElementType `json:"type" bson:"type"`
	ID   int64       `json:"id" bson:"id"`
}

// DocumentUser identifies the last editor of an element.
type DocumentUser struct {
	Name string `json:"name" bson:"name"`
	ID   string `json:"id" bson:"id"`
}

// GeoPoint is a GeoJSON point; coordinates are [lon, lat].
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates orb.Point `json:"coordinates" bson:"coordinates"`
}

// Document is the persisted form of an audited element.
type Document struct {
	ID         DocumentID        `json:"_id" bson:"_id"`
	Time       time.Time         `json:"t" bson:"t"`
	User       DocumentUser      `json:"user" bson:"user"`
	Loc        *GeoPoint         `json:"loc,omitempty" bson:"loc,omitempty"`
	Nodes      []int64           `json:"nodes,omitempty" bson:"nodes,omitempty"`
	Members    []Member          `json:"members,omitempty" bson:"members,omitempty"`
	Tags       map[string]string `json:"tags,omitempty" bson:"tags,omitempty"`
	TagKeys    []string          `json:"tag_keys,omitempty" bson:"tag_keys,omitempty"`
	TagValues  string            `json:"tag_values,omitempty" bson:"tag_values,omitempty"`
	ImportedAt time.Time         `json:"imported_at" bson:"imported_at"`
}

// Key identifies the document as "type/id".
func (d *Document) Key() string {
	return string(d.ID.Type) + "/" + strconv.FormatInt(d.ID.ID, 10)
}

// ToDocument converts an element into its persisted form.
func ToDocument(el *Element) Document {
	doc := Document{
		ID:   DocumentID{Type: el.Type, ID: el.ID},
		Time: el.Timestamp.UTC(),
		User: DocumentUser{
			Name: el.User,
			ID:   strconv.FormatInt(el.UserID, 10),
		},
		ImportedAt: importTime(),
	}

	switch el.Type {
	case TypeNode:
		doc.Loc = &GeoPoint{Type: "Point", Coordinates: orb.Point{el.Lon, el.Lat}}
	case TypeWay:
		doc.Nodes = append([]int64{}, el.Nodes...)
	case TypeRelation:
		doc.Members = append([]Member{}, el.Members...)
	}

	if len(el.Tags) > 0 {
		doc.Tags = make(map[string]string, len(el.Tags))
		values := make([]string, 0, len(el.Tags))
		for _, t := range el.Tags {
			if _, dup := doc.Tags[t.Key]; !dup {
				doc.TagKeys = append(doc.TagKeys, t.Key)
				values = append(values, t.Value)
			} else {
				// Later duplicates win, as in the source map semantics.
				values[indexOf(doc.TagKeys, t.Key)] = t.Value
			}
			doc.Tags[t.Key] = t.Value
		}
		doc.TagValues = strings.Join(values, "\n")
	}

	return doc
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}
