package mapview

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"carte-elus/internal/geo"
	"carte-elus/internal/join"
	"carte-elus/internal/tables"
)

type swapSource struct{ t *tables.Tables }

func (s *swapSource) Tables() *tables.Tables { return s.t }

func square(idx int, lon, lat float64, props geo.Props) *geo.Feature {
	poly := orb.Polygon{orb.Ring{{lon, lat}, {lon + 1, lat}, {lon + 1, lat + 1}, {lon, lat + 1}, {lon, lat}}}
	return &geo.Feature{Index: idx, Geometry: poly, Bound: poly.Bound(), Props: props}
}

func testLayer(kind geo.Kind, props ...geo.Props) *geo.Layer {
	l := &geo.Layer{Kind: kind, Source: kind.String()}
	for i, p := range props {
		l.Features = append(l.Features, square(i, float64(i), 45, p))
	}
	return l
}

func deputies() *tables.Tables {
	return &tables.Tables{Deputies: map[string]tables.Deputy{
		"7-2": {DeptCode: "7", Circo: "2", FirstName: "Hervé", LastName: "Saulignac", GroupAbbrev: "SOC-NFP"},
	}}
}

func newTestController(src *swapSource, communes bool) *Controller {
	opts := DefaultOptions()
	opts.CommunesEnabled = communes
	opts.LayerURL = func(k geo.Kind) string { return "/api/layers/" + k.String() }
	return NewController(join.NewResolver(src, ""), opts)
}

func loadAll(c *Controller) {
	c.Dispatch(LayerLoaded{Layer: testLayer(geo.Region, geo.Props{Code: "84", Name: "Auvergne-Rhône-Alpes"}, geo.Props{Code: "53", Name: "Bretagne"})})
	c.Dispatch(LayerLoaded{Layer: testLayer(geo.Department, geo.Props{Code: "07", Name: "Ardèche"}, geo.Props{Code: "26", Name: "Drôme"})})
	c.Dispatch(LayerLoaded{Layer: testLayer(geo.Circonscription, geo.Props{Dept: "7", Circo: "2"}, geo.Props{Dept: "7", Circo: "3"})})
	c.Dispatch(LayerLoaded{Layer: testLayer(geo.Commune, geo.Props{Commune: "07010"})})
}

func names(cmds []Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.CommandName()
	}
	return out
}

func TestBand(t *testing.T) {
	tests := []struct {
		zoom     float64
		communes bool
		want     geo.Kind
	}{
		{3, true, geo.Region},
		{6.0, true, geo.Region},
		{6.0001, true, geo.Department},
		{6.5, true, geo.Department},
		{8.0, true, geo.Department},
		{8.5, true, geo.Circonscription},
		{9.0, true, geo.Circonscription},
		{9.5, true, geo.Commune},
		{9.5, false, geo.Circonscription},
		{10, false, geo.Circonscription},
		{10, true, geo.Commune},
	}
	for _, tt := range tests {
		if got := Band(tt.zoom, tt.communes); got != tt.want {
			t.Errorf("Band(%v, %v) = %v, want %v", tt.zoom, tt.communes, got, tt.want)
		}
	}
}

func TestZoomShowsExactlyOneLayer(t *testing.T) {
	c := newTestController(&swapSource{deputies()}, true)
	loadAll(c)
	if got := c.State().VisibleLayers(); !reflect.DeepEqual(got, []geo.Kind{geo.Region}) {
		t.Fatalf("initial visible = %v", got)
	}
	for _, z := range []float64{6.0, 8.0, 9.0, 9.5, 7, 6.0, 10, 8.5, 6.0} {
		c.Dispatch(ZoomChanged{Zoom: z})
		want := []geo.Kind{Band(z, true)}
		if got := c.State().VisibleLayers(); !reflect.DeepEqual(got, want) {
			t.Errorf("zoom %v: visible = %v, want %v", z, got, want)
		}
	}
}

func TestZoomIsIdempotent(t *testing.T) {
	c := newTestController(&swapSource{deputies()}, true)
	loadAll(c)
	first := c.Dispatch(ZoomChanged{Zoom: 7})
	if want := []string{"hide_layer", "show_layer"}; !reflect.DeepEqual(names(first), want) {
		t.Fatalf("first zoom = %v, want %v", names(first), want)
	}
	if again := c.Dispatch(ZoomChanged{Zoom: 7.5}); len(again) != 0 {
		t.Errorf("same band emitted %v", names(again))
	}
}

func TestTargetShownWhenItFinishesLoading(t *testing.T) {
	c := newTestController(&swapSource{}, true)
	c.Dispatch(LayerLoaded{Layer: testLayer(geo.Region, geo.Props{Code: "53"})})

	cmds := c.Dispatch(ZoomChanged{Zoom: 7})
	if want := []string{"hide_layer"}; !reflect.DeepEqual(names(cmds), want) {
		t.Fatalf("cmds = %v, want %v", names(cmds), want)
	}
	if got := c.State().VisibleLayers(); len(got) != 0 {
		t.Fatalf("visible = %v, want none", got)
	}

	cmds = c.Dispatch(LayerLoaded{Layer: testLayer(geo.Department, geo.Props{Code: "07"})})
	if want := []string{"layer_ready", "show_layer"}; !reflect.DeepEqual(names(cmds), want) {
		t.Fatalf("cmds = %v, want %v", names(cmds), want)
	}
	ready := cmds[0].(LayerReady)
	if ready.URL != "/api/layers/departements" || ready.Count != 1 {
		t.Errorf("layer_ready = %+v", ready)
	}
	if got := c.State().VisibleLayers(); !reflect.DeepEqual(got, []geo.Kind{geo.Department}) {
		t.Errorf("visible = %v", got)
	}

	// 非目标图层加载只通知，不显示
	cmds = c.Dispatch(LayerLoaded{Layer: testLayer(geo.Circonscription, geo.Props{Dept: "7", Circo: "2"})})
	if want := []string{"layer_ready"}; !reflect.DeepEqual(names(cmds), want) {
		t.Errorf("cmds = %v, want %v", names(cmds), want)
	}
}

func TestCommunesDisabled(t *testing.T) {
	c := newTestController(&swapSource{}, false)
	loadAll(c)
	if c.State().Loaded(geo.Commune) {
		t.Fatal("commune layer should be ignored when disabled")
	}
	c.Dispatch(ZoomChanged{Zoom: 10})
	if got := c.State().VisibleLayers(); !reflect.DeepEqual(got, []geo.Kind{geo.Circonscription}) {
		t.Errorf("visible = %v", got)
	}
}

// 应用 SetStyle/RestyleLayer 后得到渲染端看到的样式
func applyStyles(view map[Ref]join.Style, cmds []Command) {
	for _, cmd := range cmds {
		switch x := cmd.(type) {
		case SetStyle:
			view[x.Ref] = x.Style
		case RestyleLayer:
			for i, s := range x.Styles {
				view[Ref{Layer: x.Layer, Index: i}] = s
			}
		}
	}
}

func TestHoverAThenBThenExitRestoresBoth(t *testing.T) {
	c := newTestController(&swapSource{deputies()}, true)
	loadAll(c)
	c.Dispatch(ZoomChanged{Zoom: 8.5})

	a := Ref{Layer: geo.Circonscription, Index: 0}
	b := Ref{Layer: geo.Circonscription, Index: 1}
	origA, _ := c.State().Original(a)
	origB, _ := c.State().Original(b)
	if origA.FillColor == origB.FillColor {
		t.Fatalf("fixture should give A and B different fills, both %s", origA.FillColor)
	}

	view := map[Ref]join.Style{a: origA, b: origB}

	cmds := c.Dispatch(FeatureHovered{Ref: a})
	if want := []string{"set_style", "bring_to_front"}; !reflect.DeepEqual(names(cmds), want) {
		t.Fatalf("hover A = %v, want %v", names(cmds), want)
	}
	applyStyles(view, cmds)
	if view[a] != Highlight(origA) {
		t.Errorf("A not highlighted: %+v", view[a])
	}

	cmds = c.Dispatch(FeatureHovered{Ref: b})
	if want := []string{"set_style", "set_style", "bring_to_front"}; !reflect.DeepEqual(names(cmds), want) {
		t.Fatalf("hover B = %v, want %v", names(cmds), want)
	}
	if cmds[0].(SetStyle).Ref != a {
		t.Errorf("previous highlight must be restored first, got %+v", cmds[0])
	}
	applyStyles(view, cmds)

	applyStyles(view, c.Dispatch(FeatureUnhovered{Ref: b}))
	if view[a] != origA || view[b] != origB {
		t.Errorf("stuck highlight: A=%+v B=%+v", view[a], view[b])
	}
	if _, ok := c.State().Highlighted(); ok {
		t.Error("highlight reference should be cleared")
	}
}

func TestHoverKeepsFeatureColour(t *testing.T) {
	s := join.Style{Color: "#333333", Weight: 1, Opacity: 0.7, FillColor: "#F06292", FillOpacity: 0.7}
	h := Highlight(s)
	if h.FillColor != s.FillColor || h.Weight <= s.Weight || h.FillOpacity >= s.FillOpacity {
		t.Errorf("Highlight(%+v) = %+v", s, h)
	}
}

func TestUnhoverIsUnconditional(t *testing.T) {
	c := newTestController(&swapSource{deputies()}, true)
	loadAll(c)
	a := Ref{Layer: geo.Region, Index: 0}
	cmds := c.Dispatch(FeatureUnhovered{Ref: a})
	if want := []string{"set_style"}; !reflect.DeepEqual(names(cmds), want) {
		t.Errorf("unhover without hover = %v, want %v", names(cmds), want)
	}
}

func TestStackingBugEngineSkipsBringToFront(t *testing.T) {
	c := newTestController(&swapSource{}, true)
	hello := c.Dispatch(Connected{UserAgent: "Mozilla/5.0 (Windows NT 10.0; Trident/7.0; rv:11.0) like Gecko"})
	if want := []string{"init"}; !reflect.DeepEqual(names(hello), want) {
		t.Fatalf("connect = %v", names(hello))
	}
	loadAll(c)
	cmds := c.Dispatch(FeatureHovered{Ref: Ref{Layer: geo.Region, Index: 1}})
	if want := []string{"set_style"}; !reflect.DeepEqual(names(cmds), want) {
		t.Errorf("hover = %v, want %v", names(cmds), want)
	}
}

func TestRegionClickOrder(t *testing.T) {
	c := newTestController(&swapSource{deputies()}, true)
	loadAll(c)
	clicked := Ref{Layer: geo.Region, Index: 0}
	c.Dispatch(FeatureHovered{Ref: Ref{Layer: geo.Region, Index: 1}})

	cmds := c.Dispatch(FeatureClicked{Ref: clicked})
	want := []string{"restyle_layer", "fly_to_bounds", "hide_layer", "show_layer", "set_style"}
	if !reflect.DeepEqual(names(cmds), want) {
		t.Fatalf("click = %v, want %v", names(cmds), want)
	}
	if h := cmds[2].(HideLayer); h.Layer != geo.Region {
		t.Errorf("hide = %v", h.Layer)
	}
	if s := cmds[3].(ShowLayer); s.Layer != geo.Department {
		t.Errorf("show = %v", s.Layer)
	}
	fly := cmds[1].(FlyToBounds)
	if fly.MaxZoom != 8 || Band(fly.MinZoom, true) != geo.Department || Band(fly.MaxZoom, true) != geo.Department {
		t.Errorf("fly zoom range = [%v, %v]", fly.MinZoom, fly.MaxZoom)
	}
	if fly.Bounds != (LatLngBounds{{45, 0}, {46, 1}}) {
		t.Errorf("fly bounds = %v", fly.Bounds)
	}
	if _, ok := c.State().Highlighted(); ok {
		t.Error("click must clear hover state")
	}
	if got := c.State().VisibleLayers(); !reflect.DeepEqual(got, []geo.Kind{geo.Department}) {
		t.Errorf("visible = %v", got)
	}
	// 飞行结束后的 zoomend 落在省一级分带，不再产生切换
	if after := c.Dispatch(ZoomChanged{Zoom: fly.MinZoom}); len(after) != 0 {
		t.Errorf("zoomend after fly = %v", names(after))
	}
}

func TestDepartmentClick(t *testing.T) {
	c := newTestController(&swapSource{deputies()}, true)
	loadAll(c)
	c.Dispatch(ZoomChanged{Zoom: 7})
	cmds := c.Dispatch(FeatureClicked{Ref: Ref{Layer: geo.Department, Index: 1}})
	want := []string{"restyle_layer", "fly_to_bounds", "hide_layer", "show_layer"}
	if !reflect.DeepEqual(names(cmds), want) {
		t.Fatalf("click = %v, want %v", names(cmds), want)
	}
	fly := cmds[1].(FlyToBounds)
	if Band(fly.MinZoom, true) != geo.Circonscription || Band(fly.MaxZoom, true) != geo.Circonscription {
		t.Errorf("fly zoom range = [%v, %v]", fly.MinZoom, fly.MaxZoom)
	}
	if s := cmds[3].(ShowLayer); s.Layer != geo.Circonscription {
		t.Errorf("show = %v", s.Layer)
	}
}

func TestClickOnHiddenLayerIgnored(t *testing.T) {
	c := newTestController(&swapSource{deputies()}, true)
	loadAll(c)
	if cmds := c.Dispatch(FeatureClicked{Ref: Ref{Layer: geo.Department, Index: 0}}); len(cmds) != 0 {
		t.Errorf("hidden layer click = %v", names(cmds))
	}
	if cmds := c.Dispatch(FeatureClicked{Ref: Ref{Layer: geo.Region, Index: 9}}); len(cmds) != 0 {
		t.Errorf("out of range click = %v", names(cmds))
	}
}

func TestCircoClickOpensPopup(t *testing.T) {
	c := newTestController(&swapSource{deputies()}, true)
	loadAll(c)
	c.Dispatch(ZoomChanged{Zoom: 9})

	cmds := c.Dispatch(FeatureClicked{Ref: Ref{Layer: geo.Circonscription, Index: 0}})
	if len(cmds) != 1 {
		t.Fatalf("cmds = %v", names(cmds))
	}
	p := cmds[0].(OpenPopup).Popup
	if !p.Found || p.Title != "Hervé Saulignac" {
		t.Errorf("popup = %+v", p)
	}

	p = c.Dispatch(FeatureClicked{Ref: Ref{Layer: geo.Circonscription, Index: 1}})[0].(OpenPopup).Popup
	if p.Found || p.Fallback != join.NoCircoInfo {
		t.Errorf("fallback popup = %+v", p)
	}
}

func TestHomeForcesRegions(t *testing.T) {
	c := newTestController(&swapSource{deputies()}, true)
	loadAll(c)
	c.Dispatch(ZoomChanged{Zoom: 9})
	c.Dispatch(FeatureHovered{Ref: Ref{Layer: geo.Circonscription, Index: 0}})

	cmds := c.Dispatch(HomePressed{})
	want := []string{"set_view", "hide_layer", "show_layer", "set_style"}
	if !reflect.DeepEqual(names(cmds), want) {
		t.Fatalf("home = %v, want %v", names(cmds), want)
	}
	if v := cmds[0].(SetView); v.Center != [2]float64{46.8, 2.5} || v.Zoom != 6 {
		t.Errorf("set_view = %+v", v)
	}
	if got := c.State().VisibleLayers(); !reflect.DeepEqual(got, []geo.Kind{geo.Region}) {
		t.Errorf("visible = %v", got)
	}
	if _, ok := c.State().Highlighted(); ok {
		t.Error("home must clear hover state")
	}
}

func TestTablesChangedRestylesJoinedLayers(t *testing.T) {
	src := &swapSource{}
	c := newTestController(src, true)
	loadAll(c)
	ref := Ref{Layer: geo.Circonscription, Index: 0}
	before, _ := c.State().Original(ref)
	if before.FillColor != join.UnclassifiedColor {
		t.Fatalf("fill before tables = %s", before.FillColor)
	}

	src.t = deputies()
	cmds := c.Dispatch(TablesChanged{})
	if want := []string{"restyle_layer", "restyle_layer"}; !reflect.DeepEqual(names(cmds), want) {
		t.Fatalf("cmds = %v, want %v", names(cmds), want)
	}
	// 隐藏图层同样重着色，之后显示时颜色已是最新
	for i, k := range []geo.Kind{geo.Circonscription, geo.Commune} {
		if c.State().Visible(k) {
			t.Fatalf("%v unexpectedly visible", k)
		}
		if got := cmds[i].(RestyleLayer).Layer; got != k {
			t.Errorf("cmds[%d] layer = %v, want %v", i, got, k)
		}
	}
	after, _ := c.State().Original(ref)
	if after.FillColor != join.GroupColor("SOC") {
		t.Errorf("fill after tables = %s", after.FillColor)
	}
	if cmds[0].(RestyleLayer).Styles[0] != after {
		t.Errorf("restyle payload = %+v", cmds[0])
	}
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		in      string
		want    Event
		wantErr bool
	}{
		{`{"type":"zoom","zoom":8.5}`, ZoomChanged{Zoom: 8.5}, false},
		{`{"type":"home"}`, HomePressed{}, false},
		{`{"type":"click","layer":"regions","index":3}`, FeatureClicked{Ref: Ref{Layer: geo.Region, Index: 3}}, false},
		{`{"type":"hover","layer":"circonscriptions","index":0}`, FeatureHovered{Ref: Ref{Layer: geo.Circonscription, Index: 0}}, false},
		{`{"type":"unhover","layer":"communes","index":7}`, FeatureUnhovered{Ref: Ref{Layer: geo.Commune, Index: 7}}, false},
		{`{"type":"zoom"}`, nil, true},
		{`{"type":"click","layer":"regions"}`, nil, true},
		{`{"type":"click","layer":"cantons","index":1}`, nil, true},
		{`{"type":"tables_changed"}`, nil, true},
		{`not json`, nil, true},
	}
	for _, tt := range tests {
		got, err := DecodeEvent([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Errorf("DecodeEvent(%s) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
			t.Errorf("DecodeEvent(%s) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestEncodeCommand(t *testing.T) {
	b, err := EncodeCommand(ShowLayer{Layer: geo.Department})
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out.Type != "show_layer" || !strings.Contains(string(out.Data), `"departements"`) {
		t.Errorf("encoded = %s", b)
	}
}
