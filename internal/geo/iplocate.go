package geo

import (
	"net"

	"github.com/oschwald/geoip2-golang"
)

// 文档注释：访客 IP → 经纬度（GeoLite2 City 数据库）
// 背景：前端未授权地理定位时，按 IP 粗略定位到城市，再交给 Locator 找选区。
// 约束：城市级精度，仅作为默认视图建议；数据库缺失时 Open 返回错误，调用方跳过该功能。
type IPLocator struct {
	db *geoip2.Reader
}

func OpenIPLocator(path string) (*IPLocator, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &IPLocator{db: db}, nil
}

// Coordinates 返回 IP 所在城市的经纬度；解析失败或无坐标返回 false
func (p *IPLocator) Coordinates(ip string) (lat, lon float64, ok bool) {
	if p == nil || p.db == nil {
		return 0, 0, false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return 0, 0, false
	}
	rec, err := p.db.City(parsed)
	if err != nil {
		return 0, 0, false
	}
	if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 {
		return 0, 0, false
	}
	return rec.Location.Latitude, rec.Location.Longitude, true
}

func (p *IPLocator) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
