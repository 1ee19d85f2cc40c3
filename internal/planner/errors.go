package planner

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidInput は入力データの不整合を表します。errors.Is で判定してください。
var ErrInvalidInput = errors.New("planner: invalid input")

// ReferentialInconsistencyError はトピックが入力に存在しない科目を参照している場合のエラーです。
type ReferentialInconsistencyError struct {
	TopicID   uuid.UUID
	SubjectID uuid.UUID
}

func (e *ReferentialInconsistencyError) Error() string {
	return fmt.Sprintf("planner: topic %s references unknown subject %s", e.TopicID, e.SubjectID)
}

func (e *ReferentialInconsistencyError) Is(target error) bool {
	return target == ErrInvalidInput
}
