// Package biz 实现检索增强回答流水线：上下文组装、回答缓存与编排。
//
// 编排器对调用方是全函数：任何内部错误都转换为描述性文本返回。
package biz
