package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kart-io/sentinel-rag/internal/model"
)

func TestFingerprint_KnownValue(t *testing.T) {
	fp := Fingerprint("什么是机器学习", docs("b", "a"))
	assert.Equal(t, "27072969b00aa8115f7bce4a2e3b5136b61463a2cf89389e0f557c0f53ef8004", fp)
}

func TestFingerprint_OrderAndScoreInvariant(t *testing.T) {
	a := []model.RetrievedDocument{{ID: "x", Score: 0.9}, {ID: "y", Score: 0.1}}
	b := []model.RetrievedDocument{{ID: "y", Score: 0.5, Text: "other"}, {ID: "x", Score: 0.2}}

	assert.Equal(t, Fingerprint("q", a), Fingerprint("q", b))
}

func TestFingerprint_Sensitivity(t *testing.T) {
	base := Fingerprint("q", docs("x", "y"))

	assert.NotEqual(t, base, Fingerprint("q2", docs("x", "y")))
	assert.NotEqual(t, base, Fingerprint("q", docs("x", "z")))
	assert.NotEqual(t, base, Fingerprint("q", docs("x")))
	assert.Len(t, base, 64)
}
