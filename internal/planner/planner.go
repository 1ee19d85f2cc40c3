// Package planner は学生の未完了トピックを優先度順に並べた学習プランを計算します。
// I/O を一切持たない純粋な計算なので、複数リクエストから同時に呼び出しても安全です。
package planner

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// DefaultExamWeight は試験の近さがスコアに与える重みの既定値です。
const DefaultExamWeight = 0.5

const (
	// 未受験トピックは 0 点よりも優先する
	absentScoreUrgency = 101.0
	examUrgencyScale   = 100.0
)

// TopicInput は1トピック分の入力です。LastScore が nil の場合は未受験を表します。
type TopicInput struct {
	TopicID   uuid.UUID
	SubjectID uuid.UUID
	Completed bool
	LastScore *float64
}

// SubjectInput は科目と(あれば)試験日です。ExamDate は UTC の暦日として解釈されます。
type SubjectInput struct {
	SubjectID uuid.UUID
	ExamDate  *time.Time
}

// Input は Plan に渡す入力一式です。Now は日数計算と推奨学習時刻の基準になります。
type Input struct {
	Now      time.Time
	Topics   []TopicInput
	Subjects []SubjectInput
}

// Options は Engine の動作設定です。
type Options struct {
	// ExamWeight が 0 以下の場合は DefaultExamWeight を使う
	ExamWeight float64
	// IncludeCompleted が true の場合、完了済みトピックを全未完了トピックの後ろに付け加える
	IncludeCompleted bool
}

// Entry は学習プランの1行です。永続化はされません。
type Entry struct {
	TopicID            uuid.UUID
	SubjectID          uuid.UUID
	PriorityScore      float64
	Difficulty         Difficulty
	Completed          bool
	LastScore          *float64
	ExamDate           *time.Time
	DaysUntilExam      *int
	Reason             string
	SuggestedStudyTime time.Time
}

// Engine は優先度計算を行います。ゼロ値ではなく New で生成してください。
type Engine struct {
	examWeight       float64
	includeCompleted bool
}

func New(opts Options) *Engine {
	w := opts.ExamWeight
	if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		w = DefaultExamWeight
	}
	return &Engine{examWeight: w, includeCompleted: opts.IncludeCompleted}
}

// Plan はトピックを優先度の高い順に並べて返します。
//
// 並び順:
//  1. 未完了トピックのみ(IncludeCompleted の場合、完了済みは必ず末尾)
//  2. 直近のスコアが低いほど上位。未受験は 0 点より上位
//  3. スコアが同じなら試験日が近い科目ほど上位。試験日なし・過去の試験は最下位
//  4. それでも同じならトピックIDの昇順
//
// スコアと試験の近さは priority = (100 - score) + examWeight * 100/(1+days) で合成する。
// トピックが Subjects に存在しない科目を参照している場合は ReferentialInconsistencyError を返す。
func (e *Engine) Plan(in Input) ([]Entry, error) {
	subjects := make(map[uuid.UUID]SubjectInput, len(in.Subjects))
	for _, s := range in.Subjects {
		if _, dup := subjects[s.SubjectID]; dup {
			continue
		}
		subjects[s.SubjectID] = s
	}

	entries := make([]Entry, 0, len(in.Topics))
	for _, t := range in.Topics {
		subject, ok := subjects[t.SubjectID]
		if !ok {
			return nil, &ReferentialInconsistencyError{TopicID: t.TopicID, SubjectID: t.SubjectID}
		}
		if t.Completed && !e.includeCompleted {
			continue
		}
		entries = append(entries, e.entryFor(in.Now, t, subject))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		if a.PriorityScore != b.PriorityScore {
			return a.PriorityScore > b.PriorityScore
		}
		return bytes.Compare(a.TopicID[:], b.TopicID[:]) < 0
	})

	return entries, nil
}

func (e *Engine) entryFor(now time.Time, t TopicInput, s SubjectInput) Entry {
	score := normalizeScore(t.LastScore)

	entry := Entry{
		TopicID:    t.TopicID,
		SubjectID:  t.SubjectID,
		Completed:  t.Completed,
		LastScore:  score,
		Difficulty: DifficultyFor(score),
	}

	var days *int
	if s.ExamDate != nil {
		exam := examDay(*s.ExamDate)
		if d := calendarDaysUntil(now, exam); d >= 0 {
			days = &d
			entry.ExamDate = &exam
		}
	}
	entry.DaysUntilExam = days

	if !t.Completed {
		entry.PriorityScore = scoreUrgency(score) + e.examWeight*examUrgency(days)
	}
	entry.Reason = reasonFor(t.Completed, score, entry.ExamDate)
	entry.SuggestedStudyTime = suggestedStudyTime(now, days)
	return entry
}

// normalizeScore は範囲外のスコアを [0,100] に丸め、NaN は未受験として扱います。
func normalizeScore(score *float64) *float64 {
	if score == nil || math.IsNaN(*score) {
		return nil
	}
	v := math.Min(math.Max(*score, 0), 100)
	return &v
}

func scoreUrgency(score *float64) float64 {
	if score == nil {
		return absentScoreUrgency
	}
	return 100 - *score
}

func examUrgency(days *int) float64 {
	if days == nil {
		return 0
	}
	return examUrgencyScale / float64(1+*days)
}

// examDay は試験日を UTC の日付(0時)に揃えます。
// DB ドライバによってはローカル時刻で返ってくるため、時刻の持つゾーンには依存しない。
func examDay(exam time.Time) time.Time {
	y, m, d := exam.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// calendarDaysUntil は now のタイムゾーンでの今日から exam までの暦日数を返します(過去なら負)。
func calendarDaysUntil(now, exam time.Time) int {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(exam.Sub(today).Hours() / 24)
}

// suggestedStudyTime は試験までの日数から次の学習開始時刻を提案します。
func suggestedStudyTime(now time.Time, days *int) time.Time {
	loc := now.Location()
	at9 := func(offsetDays int) time.Time {
		y, m, d := now.AddDate(0, 0, offsetDays).Date()
		return time.Date(y, m, d, 9, 0, 0, 0, loc)
	}

	switch {
	case days == nil:
		return at9(1)
	case *days <= 3:
		soon := now.Add(2 * time.Hour)
		y, m, d := soon.Date()
		return time.Date(y, m, d, soon.Hour(), 0, 0, 0, loc)
	case *days <= 7:
		return at9(1)
	default:
		return at9(2)
	}
}

func reasonFor(completed bool, score *float64, exam *time.Time) string {
	var reason string
	switch {
	case completed:
		reason = "Completed"
	case score == nil:
		reason = "Not assessed yet"
	default:
		reason = fmt.Sprintf("Last score: %.0f%%", *score)
	}
	if exam != nil {
		reason += " | Exam: " + exam.Format("2006-01-02")
	}
	return reason
}
