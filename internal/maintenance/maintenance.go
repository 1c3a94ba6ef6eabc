// Package maintenance 通过一个标记文件切换站点维护模式。
package maintenance

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	bannerLine       = "MAINTENANCE MODE ENABLED"
	timestampLayout  = "2006-01-02 15:04:05 MST"
	retryAfterSecond = "300"
	defaultMessage   = "站点正在维护，请稍后再访问。"
)

// DefaultAllow 维护期间仍然可以访问的路径前缀。
var DefaultAllow = []string{"/admin", "/static", "/uploads", "/healthz", "/metrics"}

// Status 是标记文件中记录的维护信息。
type Status struct {
	Enabled   bool      `json:"enabled"`
	EnabledAt time.Time `json:"enabled_at,omitempty"`
	Operator  string    `json:"operator,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Flag 指向维护标记文件。
type Flag struct {
	Path string
}

// Enable 写入标记文件，重复调用会覆盖之前的信息。
func (f Flag) Enable(message, operator string, now time.Time) error {
	if strings.TrimSpace(f.Path) == "" {
		return errors.New("maintenance flag path is empty")
	}
	if dir := filepath.Dir(f.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create maintenance dir: %w", err)
		}
	}

	message = strings.TrimSpace(message)
	if message == "" {
		message = defaultMessage
	}
	operator = strings.TrimSpace(operator)
	if operator == "" {
		operator = "system"
	}

	var b strings.Builder
	b.WriteString(bannerLine + "\n")
	fmt.Fprintf(&b, "Enabled at: %s\n", now.UTC().Format(timestampLayout))
	fmt.Fprintf(&b, "Enabled by: %s\n", operator)
	fmt.Fprintf(&b, "Message: %s\n", strings.ReplaceAll(message, "\n", " "))

	return os.WriteFile(f.Path, []byte(b.String()), 0o644)
}

// Disable 删除标记文件，文件不存在时返回 false。
func (f Flag) Disable() (bool, error) {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Enabled 判断标记文件是否存在。
func (f Flag) Enabled() bool {
	if strings.TrimSpace(f.Path) == "" {
		return false
	}
	_, err := os.Stat(f.Path)
	return err == nil
}

// Status 读取标记文件，未开启时返回 Enabled=false。
func (f Flag) Status() (Status, error) {
	file, err := os.Open(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, err
	}
	defer file.Close()

	status := Status{Enabled: true}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Enabled at":
			if t, err := time.Parse(timestampLayout, value); err == nil {
				status.EnabledAt = t
			}
		case "Enabled by":
			status.Operator = value
		case "Message":
			status.Message = value
		}
	}
	if err := scanner.Err(); err != nil {
		return Status{}, err
	}
	if status.Message == "" {
		status.Message = defaultMessage
	}
	return status, nil
}

// Middleware 在维护模式下对非白名单路径返回 503。
// allow 为空时使用 DefaultAllow；render 为 nil 时输出纯文本页面。
func Middleware(flag Flag, allow []string, render func(c *gin.Context, status Status)) gin.HandlerFunc {
	if len(allow) == 0 {
		allow = DefaultAllow
	}
	return func(c *gin.Context) {
		if !flag.Enabled() || allowed(c.Request.URL.Path, allow) {
			c.Next()
			return
		}

		status, err := flag.Status()
		if err != nil {
			c.Error(err)
			status = Status{Enabled: true, Message: defaultMessage}
		}

		c.Header("Retry-After", retryAfterSecond)
		if strings.Contains(c.GetHeader("Accept"), "application/json") {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":       status.Message,
				"maintenance": true,
			})
			return
		}
		if render != nil {
			render(c, status)
			c.Abort()
			return
		}
		c.Data(http.StatusServiceUnavailable, "text/plain; charset=utf-8", []byte(status.Message))
		c.Abort()
	}
}

func allowed(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		prefix = strings.TrimRight(prefix, "/")
		if prefix == "" {
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
