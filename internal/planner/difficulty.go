package planner

// Difficulty は直近スコアから導出される難易度ラベルです。
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

const (
	mediumThreshold = 50.0
	easyThreshold   = 75.0
)

// DifficultyFor はスコアから難易度を返します。未受験(nil)は hard です。
func DifficultyFor(score *float64) Difficulty {
	switch {
	case score == nil || *score < mediumThreshold:
		return DifficultyHard
	case *score < easyThreshold:
		return DifficultyMedium
	default:
		return DifficultyEasy
	}
}

// IsValid reports whether d is one of the known labels.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}
