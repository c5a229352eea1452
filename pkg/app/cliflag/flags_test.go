package cliflag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamedFlagSets_Order(t *testing.T) {
	var fss NamedFlagSets
	fss.FlagSet("rag").Int("rag.top-k", 3, "top k")
	fss.FlagSet("cache").Bool("cache.enabled", true, "enable cache")
	fss.FlagSet("rag").Bool("rag.enabled", true, "enable rag")

	assert.Equal(t, []string{"rag", "cache"}, fss.Order)
	assert.NotNil(t, fss.FlagSets["rag"].Lookup("rag.enabled"))
	assert.NotNil(t, fss.FlagSets["rag"].Lookup("rag.top-k"))
}

func TestPrintSections(t *testing.T) {
	var fss NamedFlagSets
	fss.FlagSet("cache").Bool("cache.enabled", true, "enable cache")
	fss.FlagSet("empty")

	var buf bytes.Buffer
	PrintSections(&buf, fss, 0)

	assert.Contains(t, buf.String(), "Cache flags:")
	assert.Contains(t, buf.String(), "--cache.enabled")
	assert.NotContains(t, buf.String(), "Empty flags:")
}
