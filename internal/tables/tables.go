package tables

// 文档注释：已加载表格的只读快照
// 背景：加载完成后整体替换，不做原地修改；nil 快照与空快照等价，所有查找返回未命中。
type Tables struct {
	Deputies map[string]Deputy
	Mayors   map[string]Mayor
}

// Deputy 按 CircoKey 查找议员
func (t *Tables) Deputy(key string) (Deputy, bool) {
	if t == nil {
		return Deputy{}, false
	}
	d, ok := t.Deputies[key]
	return d, ok
}

// Mayor 按规范化 INSEE 编码查找市长（已合并派别）
func (t *Tables) Mayor(code string) (Mayor, bool) {
	if t == nil {
		return Mayor{}, false
	}
	m, ok := t.Mayors[code]
	return m, ok
}
