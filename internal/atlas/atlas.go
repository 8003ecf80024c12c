// 包 atlas：进程级数据持有者，保存已加载的表格快照与几何图层，并向地图会话广播加载完成
package atlas

import (
	"sync"
	"sync/atomic"
	"time"

	"carte-elus/internal/geo"
	"carte-elus/internal/logger"
	"carte-elus/internal/mapview"
	"carte-elus/internal/tables"
)

// 订阅通道容量；加载事件稀少（每个来源一次，外加每周刷新），正常不会写满
const subscriberBuffer = 32

// SourceStatus 为单个数据源的加载状态
type SourceStatus struct {
	Source   string    `json:"source"`
	Loaded   bool      `json:"loaded"`
	Rows     int       `json:"rows"`
	Skipped  int       `json:"skipped,omitempty"`
	Error    string    `json:"error,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

// Status 为 /status 接口返回的整体状态
type Status struct {
	Tables map[string]SourceStatus `json:"tables"`
	Layers map[string]SourceStatus `json:"layers"`
}

// 文档注释：数据持有者
// 背景：表格与图层由互不等待的后台协程加载，完成顺序任意；读路径通过 atomic.Pointer 无锁取最新快照，
// 写入后立即对后续读取生效，并向订阅者发送 LayerLoaded / TablesChanged。
// 约束：快照整体替换、不原地修改；市长与派别任一方更新都会重新合并生成新快照。
type Atlas struct {
	snapshot atomic.Pointer[tables.Tables]
	layers   [4]atomic.Pointer[geo.Layer]
	locator  atomic.Pointer[geo.Locator]

	locateCacheSize int
	locateCacheTTL  time.Duration

	mu       sync.Mutex
	deputies map[string]tables.Deputy
	mayors   map[string]tables.Mayor
	families map[string]tables.PoliticalFamily
	status   Status
	subs     map[int]chan mapview.Event
	nextSub  int
}

func New(locateCacheSize int, locateCacheTTL time.Duration) *Atlas {
	return &Atlas{
		locateCacheSize: locateCacheSize,
		locateCacheTTL:  locateCacheTTL,
		status: Status{
			Tables: make(map[string]SourceStatus),
			Layers: make(map[string]SourceStatus),
		},
		subs: make(map[int]chan mapview.Event),
	}
}

// Tables 返回当前表格快照；尚无任何表加载完成时为 nil
func (a *Atlas) Tables() *tables.Tables { return a.snapshot.Load() }

// Layer 返回已加载的图层，未加载返回 nil
func (a *Atlas) Layer(k geo.Kind) *geo.Layer {
	if int(k) < 0 || int(k) >= len(a.layers) {
		return nil
	}
	return a.layers[k].Load()
}

// Layers 按由粗到细返回全部已加载图层
func (a *Atlas) Layers() []*geo.Layer {
	var out []*geo.Layer
	for _, k := range geo.Kinds {
		if l := a.Layer(k); l != nil {
			out = append(out, l)
		}
	}
	return out
}

// Locator 返回选区点落区查询器；选区图层未加载时为 nil
func (a *Atlas) Locator() *geo.Locator { return a.locator.Load() }

// Status 返回各数据源状态的副本
func (a *Atlas) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := Status{
		Tables: make(map[string]SourceStatus, len(a.status.Tables)),
		Layers: make(map[string]SourceStatus, len(a.status.Layers)),
	}
	for k, v := range a.status.Tables {
		out.Tables[k] = v
	}
	for k, v := range a.status.Layers {
		out.Layers[k] = v
	}
	return out
}

// 文档注释：订阅加载事件
// 约束：返回的取消函数必须调用以释放通道；通道写满时丢弃事件并记录告警，不阻塞加载协程。
func (a *Atlas) Subscribe() (<-chan mapview.Event, func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextSub
	a.nextSub++
	ch := make(chan mapview.Event, subscriberBuffer)
	a.subs[id] = ch
	return ch, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if c, ok := a.subs[id]; ok {
			delete(a.subs, id)
			close(c)
		}
	}
}

// publish 需在持有 a.mu 时调用
func (a *Atlas) publish(ev mapview.Event) {
	for id, ch := range a.subs {
		select {
		case ch <- ev:
		default:
			logger.L().Warn("atlas_subscriber_full", "sub", id, "event", ev.EventName())
		}
	}
}

// SetLayer 发布一个新图层；选区图层同时重建点落区查询器
func (a *Atlas) SetLayer(l *geo.Layer) {
	if l == nil || int(l.Kind) < 0 || int(l.Kind) >= len(a.layers) {
		return
	}
	a.layers[l.Kind].Store(l)
	if l.Kind == geo.Circonscription {
		a.locator.Store(geo.NewLocator(l, a.locateCacheSize, a.locateCacheTTL))
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	st := a.status.Layers[l.Kind.String()]
	st.Source = l.Source
	st.Loaded = true
	st.Rows = l.Len()
	st.Error = ""
	st.LoadedAt = time.Now()
	a.status.Layers[l.Kind.String()] = st
	a.publish(mapview.LayerLoaded{Layer: l})
}

// SetDeputies 替换议员表
func (a *Atlas) SetDeputies(d map[string]tables.Deputy) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deputies = d
	a.rebuild()
}

// SetMayors 替换市长表，并与现有派别表重新合并
func (a *Atlas) SetMayors(m map[string]tables.Mayor) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mayors = m
	a.rebuild()
}

// SetFamilies 替换派别表，并与现有市长表重新合并
func (a *Atlas) SetFamilies(f map[string]tables.PoliticalFamily) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.families = f
	a.rebuild()
}

// SetTables 一次替换全部表格（数据库来源）
func (a *Atlas) SetTables(t *tables.Tables) {
	if t == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deputies = t.Deputies
	a.mayors = t.Mayors
	a.families = nil
	a.snapshot.Store(&tables.Tables{Deputies: t.Deputies, Mayors: t.Mayors})
	a.publish(mapview.TablesChanged{})
}

// rebuild 需在持有 a.mu 时调用
func (a *Atlas) rebuild() {
	next := &tables.Tables{Deputies: a.deputies}
	if a.mayors != nil {
		next.Mayors = tables.JoinFamilies(a.mayors, a.families)
	}
	a.snapshot.Store(next)
	a.publish(mapview.TablesChanged{})
}

func (a *Atlas) setTableStatus(name string, st SourceStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status.Tables[name] = st
}

func (a *Atlas) setLayerError(k geo.Kind, src string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := a.status.Layers[k.String()]
	st.Source = src
	st.Error = err.Error()
	a.status.Layers[k.String()] = st
}
