package biz

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/kart-io/sentinel-rag/internal/model"
)

// Fingerprint 计算缓存键：sha256(query + "_" + 排序后的文档 ID 以 "_" 连接)。
// 与文档顺序、分数无关，只取决于查询文本与文档 ID 集合。
func Fingerprint(query string, docs []model.RetrievedDocument) string {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.Valid() {
			ids = append(ids, d.ID)
		}
	}
	sort.Strings(ids)

	sum := sha256.Sum256([]byte(query + "_" + strings.Join(ids, "_")))
	return hex.EncodeToString(sum[:])
}
