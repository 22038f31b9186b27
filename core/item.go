package core

import "github.com/reelkit/reelkit/pkg/utils"

// ContentItem 是外部片库（catalog）中的一条内容条目。
// 由外部元数据导入方维护，引擎侧只读，不做任何校验或回写。
type ContentItem struct {
	ID       string
	Title    string
	Type     string   // movie / series
	Genres   []string // 题材标签
	Year     int      // 上映年份
	Rating   float64  // 片库质量评分（0 ~ QualityScale，默认 0-10）
	Duration int      // 时长（分钟）
}

// HasGenre 检查内容是否包含某个题材。
func (c *ContentItem) HasGenre(genre string) bool {
	for _, g := range c.Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// Candidate 是打分链路中的统一承载结构：内容、分数、推荐理由、标签。
// Labels 用于解释与观测；Score 用于排序与截断决策。
type Candidate struct {
	Content   *ContentItem
	Score     float64
	Reasoning string
	Labels    map[string]utils.Label
}

func NewCandidate(content *ContentItem, score float64, reasoning string) *Candidate {
	return &Candidate{
		Content:   content,
		Score:     score,
		Reasoning: reasoning,
		Labels:    make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// ContentID 返回候选内容的 ID；Content 为空时返回空字符串。
func (c *Candidate) ContentID() string {
	if c == nil || c.Content == nil {
		return ""
	}
	return c.Content.ID
}
