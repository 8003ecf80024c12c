// 包 utils：外部连接工具（PostgreSQL、Redis、自签名证书）
package utils

import (
	"database/sql"
	"net/url"

	_ "github.com/lib/pq"

	"carte-elus/internal/config"
)

// BuildPostgresDSN 由配置拼接 postgres:// 连接串，密码为空时省略
func BuildPostgresDSN(c config.Postgres) string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.DB,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	return u.String()
}

// OpenPostgres 打开连接池；sql.Open 不建立连接，可用性由调用方 Ping 确认
func OpenPostgres(c config.Postgres) (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSN(c))
	if err != nil {
		return nil, err
	}
	if c.MaxOpen > 0 {
		db.SetMaxOpenConns(c.MaxOpen)
	}
	if c.MaxIdle > 0 {
		db.SetMaxIdleConns(c.MaxIdle)
	}
	return db, nil
}
