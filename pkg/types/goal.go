package types

// Goal is the lifecycle stage a transaction element is processed for.
type Goal int

const (
	GoalInstall Goal = iota + 1
	GoalErase
	GoalPreTrans
	GoalPostTrans
)

// IsScriptStage reports whether the goal only runs a transaction scriptlet.
// Script stages reuse the file manifest resolved for the real step.
func (g Goal) IsScriptStage() bool {
	return g != GoalInstall && g != GoalErase
}

func (g Goal) String() string {
	switch g {
	case GoalInstall:
		return "install"
	case GoalErase:
		return "erase"
	case GoalPreTrans:
		return "pretrans"
	case GoalPostTrans:
		return "posttrans"
	default:
		return "unknown"
	}
}
