package pipeline

import (
	"errors"
	"fmt"
)

// ErrLookup 是所有按患者标识查找失败的公共错误，MissingPatientError 与 DuplicatePatientError 都满足 errors.Is(err, ErrLookup)。
var ErrLookup = errors.New("admission lookup failed")

// CompleteDataEntryMessage 是输入不完整时展示给用户的提示。
const CompleteDataEntryMessage = "Please complete data entry..."

// InvalidInputError 表示边界处的输入缺失或无法解析（例如患者标识不是数字）。
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

// UserMessage 返回可以直接展示给用户的提示。
func (e *InvalidInputError) UserMessage() string {
	return CompleteDataEntryMessage
}

// MissingPatientError 表示数据表中没有该标识对应的行。
type MissingPatientError struct {
	HadmID int64
}

func (e *MissingPatientError) Error() string {
	return fmt.Sprintf("no admission found for hadm_id %d", e.HadmID)
}

func (e *MissingPatientError) Is(target error) bool { return target == ErrLookup }

// UserMessage 返回可以直接展示给用户的提示。
func (e *MissingPatientError) UserMessage() string {
	return fmt.Sprintf("No admission record was found for patient ID %d.", e.HadmID)
}

// DuplicatePatientError 表示同一个标识匹配到了多行，数据表的唯一键约束被破坏。
type DuplicatePatientError struct {
	HadmID int64
	Count  int
}

func (e *DuplicatePatientError) Error() string {
	return fmt.Sprintf("hadm_id %d matched %d admissions, expected exactly one", e.HadmID, e.Count)
}

func (e *DuplicatePatientError) Is(target error) bool { return target == ErrLookup }

// MissingFeatureError 表示声明的特征名不在数据表的列中，这是配置完整性错误，应在启动时暴露。
type MissingFeatureError struct {
	Feature string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("feature %q is not a column of the admission store", e.Feature)
}

// NonNumericFeatureError 表示特征列的取值无法转换为数值。
type NonNumericFeatureError struct {
	Feature string
	HadmID  int64
	Value   interface{}
}

func (e *NonNumericFeatureError) Error() string {
	return fmt.Sprintf("feature %q of hadm_id %d is not numeric: %v", e.Feature, e.HadmID, e.Value)
}

// ContractError 表示特征契约（特征顺序、向量维度、分类器输入长度）与部署的制品不一致。
type ContractError struct {
	Reason string
}

func (e *ContractError) Error() string {
	return "feature contract mismatch: " + e.Reason
}
