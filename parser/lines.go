package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// 按行读取的定长文本
type textLines struct {
	name  string
	lines []string
}

func readLines(name string, r io.Reader) (*textLines, error) {
	t := &textLines{name: name}
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for s.Scan() {
		t.lines = append(t.lines, s.Text())
	}
	if err := s.Err(); err != nil {
		return nil, &ParseError{File: name, Err: err}
	}
	return t, nil
}

func openLines(path string) (*textLines, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLines(path, f)
}

func (t *textLines) errorf(i int, format string, args ...interface{}) error {
	return &ParseError{File: t.name, Line: i + 1, Err: fmt.Errorf(format, args...)}
}

// floats 解析第 i 行（从 0 开始）的所有数值；want > 0 时要求数值个数一致
func (t *textLines) floats(i, want int) ([]float64, error) {
	if i < 0 || i >= len(t.lines) {
		return nil, &ParseError{File: t.name, Line: i + 1,
			Err: fmt.Errorf("unexpected end of file, have %d lines", len(t.lines))}
	}
	fields := strings.Fields(t.lines[i])
	if want > 0 && len(fields) != want {
		return nil, t.errorf(i, "want %d values, got %d", want, len(fields))
	}
	values := make([]float64, len(fields))
	for k, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, t.errorf(i, "value %d %q is not a number", k+1, f)
		}
		values[k] = v
	}
	return values, nil
}

// single 第 i 行只含一个数值
func (t *textLines) single(i int) (float64, error) {
	v, err := t.floats(i, 1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

// span 将 [start, start+n) 行的数值依次拼接
func (t *textLines) span(start, n, perLine int) ([]float64, error) {
	var values []float64
	for i := start; i < start+n; i++ {
		v, err := t.floats(i, perLine)
		if err != nil {
			return nil, err
		}
		values = append(values, v...)
	}
	return values, nil
}

// find 返回包含 marker 的所有行号
func (t *textLines) find(marker string) []int {
	var idx []int
	for i, l := range t.lines {
		if strings.Contains(l, marker) {
			idx = append(idx, i)
		}
	}
	return idx
}
