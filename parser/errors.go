package parser

import (
	"fmt"

	"waxloop/model"
)

// ParseError 文件格式错误，Line 从 1 开始，0 表示整个文件
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is 所有 ParseError 都属于 ErrFileFormat
func (e *ParseError) Is(target error) bool {
	return target == model.ErrFileFormat
}
