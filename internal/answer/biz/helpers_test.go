package biz

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/kart-io/sentinel-rag/internal/model"
	"github.com/kart-io/sentinel-rag/pkg/llm"
)

// fakeBackend 记录调用次数与最后一次提示词。
type fakeBackend struct {
	calls atomic.Int32
	reply string
	panic any

	mu         sync.Mutex
	lastPrompt string
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Generate(_ context.Context, prompt string, _ float64) string {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastPrompt = prompt
	f.mu.Unlock()
	if f.panic != nil {
		panic(f.panic)
	}
	return f.reply
}

func (f *fakeBackend) prompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPrompt
}

// echoBackend 返回提示词中的用户问题。
type echoBackend struct{}

func (echoBackend) Name() string { return "echo" }

func (echoBackend) Generate(_ context.Context, prompt string, _ float64) string {
	const marker = "用户问题: "
	rest := prompt[strings.Index(prompt, marker)+len(marker):]
	return rest[:strings.Index(rest, "\n")]
}

func constructed(b llm.Backend) llm.Selection {
	return llm.Selection{
		Backend:   b,
		Requested: "test",
		Kind:      llm.KindRemote,
		Outcome:   llm.OutcomeConstructed,
	}
}

// failingCache 所有操作返回错误。
type failingCache struct{ err error }

func (c failingCache) Name() string { return "failing" }

func (c failingCache) Lookup(context.Context, string) (string, bool, error) {
	return "", false, c.err
}

func (c failingCache) Store(context.Context, string, string) error { return c.err }

func (c failingCache) Clear(context.Context) error { return c.err }

func (c failingCache) Len(context.Context) (int, error) { return 0, c.err }

func docs(ids ...string) []model.RetrievedDocument {
	out := make([]model.RetrievedDocument, 0, len(ids))
	for i, id := range ids {
		out = append(out, model.RetrievedDocument{
			ID:    id,
			Score: 1 - float64(i)*0.1,
			Text:  "content of " + id,
		})
	}
	return out
}

func intPtr(v int) *int { return &v }
