package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-rag/pkg/utils/json"
)

func TestRetrievedDocument_UnmarshalObject(t *testing.T) {
	var d RetrievedDocument
	require.NoError(t, json.Unmarshal([]byte(`{"id":"doc1","score":0.95,"text":"机器学习简介"}`), &d))

	assert.Equal(t, RetrievedDocument{ID: "doc1", Score: 0.95, Text: "机器学习简介"}, d)
	assert.True(t, d.Valid())
}

func TestRetrievedDocument_UnmarshalTuple(t *testing.T) {
	var d RetrievedDocument
	require.NoError(t, json.Unmarshal([]byte(`["doc2", 0.5, "深度学习"]`), &d))

	assert.Equal(t, RetrievedDocument{ID: "doc2", Score: 0.5, Text: "深度学习"}, d)
}

func TestRetrievedDocument_ShortTupleIsInvalid(t *testing.T) {
	var docs []RetrievedDocument
	require.NoError(t, json.Unmarshal([]byte(`[["doc1", 0.9], ["doc2", 0.8, "ok"]]`), &docs))

	require.Len(t, docs, 2)
	assert.False(t, docs[0].Valid())
	assert.True(t, docs[1].Valid())
}

func TestRetrievedDocument_MalformedEntriesSkippedIndividually(t *testing.T) {
	var docs []RetrievedDocument
	data := `[["a", 0.9, "ok"], ["b", "0.5", "bad score"], [1, 0.3, "bad id"], {"id": 7}, "text", {"id": "c", "score": 0.1, "text": "ok"}]`
	require.NoError(t, json.Unmarshal([]byte(data), &docs))

	require.Len(t, docs, 6)
	assert.Equal(t, RetrievedDocument{ID: "a", Score: 0.9, Text: "ok"}, docs[0])
	for _, d := range docs[1:5] {
		assert.False(t, d.Valid())
		assert.Equal(t, RetrievedDocument{}, d)
	}
	assert.Equal(t, RetrievedDocument{ID: "c", Score: 0.1, Text: "ok"}, docs[5])
}

func TestDocument_TableName(t *testing.T) {
	assert.Equal(t, "rag_documents", Document{}.TableName())
}
