package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 错误分类（§错误处理设计）：
//   - INVALID_TARGET：个人/小组两者都给或都不给
//   - NOT_FOUND：未知的目标/内容/推荐
//   - ALGORITHM_FAILURE：打分器兜底链全部落空（空片库）
//   - PERSISTENCE_FAILURE：原子批量写入失败，整批回滚
//   - FEEDBACK_FAILURE：反馈 upsert 失败，直接上抛由调用方决定重试
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INVALID_TARGET"）
	Message string // 错误消息
	Module  string // 模块名称（如 "engine", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DomainError)
	return ok
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound           = "NOT_FOUND"            // 资源不存在
	ErrorCodeNotSupported       = "NOT_SUPPORTED"        // 操作不支持
	ErrorCodeInvalidTarget      = "INVALID_TARGET"       // 推荐目标非法
	ErrorCodeAlgorithmFailure   = "ALGORITHM_FAILURE"    // 打分兜底链耗尽
	ErrorCodePersistenceFailure = "PERSISTENCE_FAILURE"  // 原子写入失败
	ErrorCodeFeedbackFailure    = "FEEDBACK_FAILURE"     // 反馈写入失败
	ErrorCodeInvalidInput       = "INVALID_INPUT"        // 输入无效
)

// 模块名称常量
const (
	ModuleStore      = "store"      // 存储模块
	ModuleEngine     = "engine"     // 生成编排模块
	ModuleScorer     = "scorer"     // 打分模块
	ModuleProfile    = "profile"    // 画像模块
	ModuleExperiment = "experiment" // 实验模块
	ModuleFeedback   = "feedback"   // 反馈模块
)

func codeIs(err error, code string) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return codeIs(err, ErrorCodeNotFound) }

// IsInvalidTarget 检查错误是否为 INVALID_TARGET
func IsInvalidTarget(err error) bool { return codeIs(err, ErrorCodeInvalidTarget) }

// IsAlgorithmFailure 检查错误是否为 ALGORITHM_FAILURE
func IsAlgorithmFailure(err error) bool { return codeIs(err, ErrorCodeAlgorithmFailure) }

// IsPersistenceFailure 检查错误是否为 PERSISTENCE_FAILURE
func IsPersistenceFailure(err error) bool { return codeIs(err, ErrorCodePersistenceFailure) }

// IsFeedbackFailure 检查错误是否为 FEEDBACK_FAILURE
func IsFeedbackFailure(err error) bool { return codeIs(err, ErrorCodeFeedbackFailure) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return codeIs(err, ErrorCodeNotSupported) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return codeIs(err, ErrorCodeInvalidInput) }
