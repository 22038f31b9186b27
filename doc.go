// Package reelkit 是一个影视推荐引擎（Reel Kit）。
//
// 设计要点：
// - Engine-first: 画像 → 打分 → 过滤 → 落盘的完整生成链路由 engine 编排
// - Labels-first: 候选全链路携带标签与推荐理由，支持 explain / 观测
// - Scorer 可扩展: 实现 scorer.Scorer 并注册即可接入新算法
package reelkit

import (
	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/engine"
	"github.com/reelkit/reelkit/scorer"
)

// 轻量 facade：便于用户直接 import "reelkit" 使用核心抽象。
type Engine = engine.Engine
type GenerateRequest = engine.GenerateRequest
type Subject = core.Subject
type Recommendation = core.Recommendation
type Candidate = core.Candidate
type Scorer = scorer.Scorer

const (
	AlgorithmContentBased  = scorer.AlgorithmContentBased
	AlgorithmCollaborative = scorer.AlgorithmCollaborative
	AlgorithmTrending      = scorer.AlgorithmTrending
	AlgorithmConsensus     = scorer.AlgorithmConsensus
	AlgorithmHybrid        = scorer.AlgorithmHybrid
	AlgorithmPopularity    = scorer.AlgorithmPopularity
)
