package core

import "time"

// RecommendContext 承载一次生成请求的目标/画像/场景信息，贯穿整个链路透传。
// 打分器与过滤器只读它，不回写（除 Labels 解释信息外无副作用）。
type RecommendContext struct {
	Subject Subject

	// Profile 是已解析的偏好画像（个人或小组）
	Profile Profile

	// Algorithm 是本次实际使用的算法名（实验分流后可能与请求不同）
	Algorithm string

	// Limit 是调用方要求的最终条数；打分器会被要求产出 2x 以留过滤余量
	Limit int

	// Now 是本次请求的统一时钟，过期判断与时间窗口都以它为准
	Now time.Time

	// A/B 实验归属（可选）
	ExperimentID string
	Variant      string

	// Params 请求级上下文参数（场景、设备等），按需取用
	Params map[string]any
}
