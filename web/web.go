// Package web 打包站点模板与静态资源，二进制部署时无需额外拷贝目录。
package web

import (
	"embed"
	"io/fs"
)

//go:embed template/*.html
var Templates embed.FS

//go:embed static
var static embed.FS

// Static 返回以 static 目录为根的文件系统。
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
