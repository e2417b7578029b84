package lightevent

import "fmt"

// ParseErrorKind 事件解析失败的类别（封闭集合）
type ParseErrorKind uint8

const (
	ParseErrorKindLengthMismatch ParseErrorKind = iota + 1 // programs / data / accounts 长度不一致
	ParseErrorKindDeserialize                              // 事件数据反序列化失败
	ParseErrorKindPanic                                    // 解析器内部 panic，已被 recover
)

func (k ParseErrorKind) String() string {
	switch k {
	case ParseErrorKindLengthMismatch:
		return "length_mismatch"
	case ParseErrorKindDeserialize:
		return "deserialize"
	case ParseErrorKindPanic:
		return "panic"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// ParseError 单笔交易级别的解析错误，Index 为出错指令在展平序列中的位置（无法定位时为 -1）
type ParseError struct {
	Kind  ParseErrorKind
	Index int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("light event parse %s at instruction %d: %v", e.Kind, e.Index, e.Err)
	}
	return fmt.Sprintf("light event parse %s: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
