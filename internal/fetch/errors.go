package fetch

import "fmt"

// 文档注释：加载错误（带阶段标记）
// 背景：区分拉取失败与解析失败，调用方据此记录日志；两种情况下对应表格保持为空、图层缺席，不中断其他加载。
type LoadError struct {
	Stage  string
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s at %s stage: %v", e.Source, e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func NewLoadError(stage, source string, err error) *LoadError {
	return &LoadError{Stage: stage, Source: source, Err: err}
}
