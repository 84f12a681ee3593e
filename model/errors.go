package model

import "errors"

// 错误类别，具体错误通过 %w 包装，调用方用 errors.Is 判断
var (
	// ErrFileFormat TAB / WAX / 时间序列文件格式错误
	ErrFileFormat = errors.New("file format error")

	// ErrMissingInput 缺少必需的列或参数
	ErrMissingInput = errors.New("missing input")

	// ErrConfiguration 未知的扩散系数方法，或数值超出物性表范围
	ErrConfiguration = errors.New("configuration error")

	// ErrNumericDomain 数值越界，例如负数的非整数次幂
	ErrNumericDomain = errors.New("numeric domain error")
)
