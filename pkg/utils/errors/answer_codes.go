package errors

// 回答服务错误码: 20 (业务服务范围 20-79)
var (
	// 请求参数错误 (类别 01)
	ErrAnswerInvalidRequest = NewRequestErr(ServiceAnswer, 1, "Invalid answer request", "回答请求参数无效")
	ErrAnswerBatchTooLarge  = NewRequestErr(ServiceAnswer, 2, "Too many items in batch request", "批量请求条目过多")

	// 缓存错误 (类别 09)
	ErrAnswerCacheClearFailed = NewCacheErr(ServiceAnswer, 1, "Failed to clear answer cache", "清空回答缓存失败")
)
