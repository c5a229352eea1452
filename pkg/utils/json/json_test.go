package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type answerBody struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
	Cached bool    `json:"cached,omitempty"`
}

func TestMarshalUnicode(t *testing.T) {
	data, err := Marshal(answerBody{Answer: "机器学习", Score: 0.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"机器学习","score":0.5}`, string(data))
}

func TestRawMessageRoundTrip(t *testing.T) {
	var raw []RawMessage
	require.NoError(t, Unmarshal([]byte(`["d1", 0.9, "text"]`), &raw))
	require.Len(t, raw, 3)

	var id string
	require.NoError(t, Unmarshal(raw[0], &id))
	assert.Equal(t, "d1", id)
}

func TestEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(answerBody{Answer: "ok", Cached: true}))

	var out answerBody
	require.NoError(t, NewDecoder(&buf).Decode(&out))
	assert.Equal(t, "ok", out.Answer)
	assert.True(t, out.Cached)
}
