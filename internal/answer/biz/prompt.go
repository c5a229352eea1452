package biz

import "fmt"

const promptTemplate = `
基于以下检索到的文档内容，回答用户的问题。

用户问题: %s

检索到的相关文档:
%s

请基于上述文档内容，生成一个准确、全面的回答。要求：
1. 回答要准确，基于文档内容
2. 如果文档中没有相关信息，请明确说明
3. 回答要简洁明了，突出重点
4. 可以引用具体的文档信息

回答:
`

// BuildPrompt 将查询与上下文嵌入固定指令模板。
func BuildPrompt(query, context string) string {
	return fmt.Sprintf(promptTemplate, query, context)
}
