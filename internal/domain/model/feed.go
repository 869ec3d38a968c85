package model

import "fmt"

// ItemIndex 条目序号,从标记节点的文本中解析("... number N"),始终为正数
type ItemIndex int

// StopReason 收敛引擎的终止原因,每次运行恰好一个
type StopReason int

const (
	StopNone StopReason = iota
	StopTargetReached
	StopStaleExhausted
	StopScrollBudgetExhausted
)

func (r StopReason) String() string {
	switch r {
	case StopTargetReached:
		return "TargetReached"
	case StopStaleExhausted:
		return "StaleExhausted"
	case StopScrollBudgetExhausted:
		return "ScrollBudgetExhausted"
	default:
		return "None"
	}
}

// Outcome returns the artifact tag for the stop reason.
func (r StopReason) Outcome() Outcome {
	switch r {
	case StopTargetReached:
		return OutcomeTarget
	case StopStaleExhausted:
		return OutcomeStale
	case StopScrollBudgetExhausted:
		return OutcomeMaxRounds
	default:
		return OutcomeNotLoaded
	}
}

// Outcome 输出文件上标记的结果
type Outcome string

const (
	OutcomeTarget    Outcome = "target"
	OutcomeStale     Outcome = "stale"
	OutcomeMaxRounds Outcome = "maxrounds"
	OutcomeEmpty     Outcome = "empty"
	OutcomeNotLoaded Outcome = "notloaded"
)

// FeedState is created when the engine starts, mutated once per round and
// dropped after the snapshot is written.
type FeedState struct {
	HighestIndexSeen ItemIndex  `json:"highest_index_seen"`
	ScrollRound      int        `json:"scroll_round"`
	StaleStreak      int        `json:"stale_streak"`
	StopReason       StopReason `json:"stop_reason"`
}

func (s FeedState) String() string {
	return fmt.Sprintf("highest=%d round=%d stale=%d stop=%s",
		s.HighestIndexSeen, s.ScrollRound, s.StaleStreak, s.StopReason)
}

// Rect 视口坐标下的元素几何信息
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Container is the captured markup of one feed item, in discovery order.
type Container struct {
	Index    ItemIndex `json:"index"`
	Strategy string    `json:"strategy"`
	HTML     string    `json:"-"`
}
