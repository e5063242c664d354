// Package events 定义了通过 Kafka 传递的索引事件。
package events

// 事件动作
const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// IndexEvent 表示某条帖子或内容页面需要重新索引或从索引中删除。
// 消费端根据 Kind 和 ID 重新读取数据库中的最新记录，因此事件本身不携带正文。
type IndexEvent struct {
	Action string `json:"action"`
	Kind   string `json:"kind"`
	ID     uint   `json:"id"`
}
