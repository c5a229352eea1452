// Package model provides data models for the rag-answer service.
package model

import (
	"bytes"
	"time"

	"github.com/kart-io/sentinel-rag/pkg/utils/json"
)

// RetrievedDocument is one entry of a ranked retrieval result.
// Text is either a summary or the full body of the document.
type RetrievedDocument struct {
	ID    string  `json:"id" validate:"max=256"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// Valid reports whether the entry carries a document identifier.
// Malformed entries are skipped during context assembly.
func (d RetrievedDocument) Valid() bool {
	return d.ID != ""
}

// UnmarshalJSON accepts both {"id","score","text"} and ["id", score, "text"].
// An entry that does not fit either shape, such as a short tuple or a field
// of the wrong type, decodes into an invalid document instead of failing the
// whole result list.
func (d *RetrievedDocument) UnmarshalJSON(data []byte) error {
	*d = RetrievedDocument{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '{':
		type plain RetrievedDocument
		var p plain
		if json.Unmarshal(data, &p) == nil {
			*d = RetrievedDocument(p)
		}
	case '[':
		var tuple []json.RawMessage
		if json.Unmarshal(data, &tuple) != nil || len(tuple) < 3 {
			return nil
		}
		var doc RetrievedDocument
		if json.Unmarshal(tuple[0], &doc.ID) != nil ||
			json.Unmarshal(tuple[1], &doc.Score) != nil ||
			json.Unmarshal(tuple[2], &doc.Text) != nil {
			return nil
		}
		*d = doc
	}
	return nil
}

// Document represents a stored document used for full-content lookup.
type Document struct {
	ID        string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(64)"`
	Title     string    `json:"title,omitempty" bson:"title,omitempty" gorm:"type:varchar(255)"`
	Content   string    `json:"content" bson:"content" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" bson:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at,omitempty" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Document.
func (Document) TableName() string {
	return "rag_documents"
}
