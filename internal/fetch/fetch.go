// 包 fetch：统一打开本地文件或 http(s) 数据源，并给出带阶段标记的加载错误
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// 文档注释：打开数据源（本地路径或 http(s) URL）
// 背景：静态资源既可随部署打包，也可直接引用 data.gouv 等公开地址；两者走同一入口。
// 约束：无重试；非 200 状态视为失败。返回的 ReadCloser 由调用方关闭。
func Open(ctx context.Context, src string) (io.ReadCloser, error) {
	if src == "" {
		return nil, NewLoadError("fetch", src, fmt.Errorf("empty source"))
	}
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, NewLoadError("fetch", src, err)
		}
		req.Header.Set("Accept", "*/*")
		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, NewLoadError("fetch", src, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, NewLoadError("fetch", src, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
		}
		return resp.Body, nil
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, NewLoadError("fetch", src, err)
	}
	return f, nil
}

// ReadAll 打开并完整读取数据源
func ReadAll(ctx context.Context, src string) ([]byte, error) {
	rc, err := Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, NewLoadError("fetch", src, err)
	}
	return b, nil
}
