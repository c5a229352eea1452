// Package store 提供文档全文查询的存储实现。
//
// 上下文构建器通过 biz.DocumentLookup 按 ID 获取文档完整内容，
// 本包提供内存（JSON 种子文件）、SQL（MySQL/PostgreSQL/SQLite）、
// MongoDB 与 Milvus 四类实现，由 New 按配置选择。
package store
