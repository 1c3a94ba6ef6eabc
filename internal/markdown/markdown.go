package markdown

import (
	"bytes"
	"html/template"
	"math"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// WordsPerMinute 为阅读时长估算使用的阅读速度。
const WordsPerMinute = 200

var (
	engine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table, extension.Typographer),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps(), gmhtml.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// Heading 是目录中的一项。
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// Document 是渲染后的 HTML 及其目录。
type Document struct {
	HTML template.HTML
	TOC  []Heading
}

// Render 将 Markdown 转为经过清洗的 HTML，并为标题注入锚点 id。
func Render(content string) (Document, error) {
	var buf bytes.Buffer
	if err := engine.Convert([]byte(content), &buf); err != nil {
		return Document{}, err
	}

	safe := sanitizer.SanitizeBytes(buf.Bytes())

	withIDs, toc, err := injectHeadingIDs(safe)
	if err != nil {
		return Document{}, err
	}

	return Document{HTML: template.HTML(withIDs), TOC: toc}, nil
}

func injectHeadingIDs(fragment []byte) ([]byte, []Heading, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(fragment), context)
	if err != nil {
		return nil, nil, err
	}

	used := make(map[string]bool)
	toc := make([]Heading, 0)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.DataAtom); level > 0 {
				text := strings.Join(strings.Fields(textContent(n)), " ")
				id := attr(n, "id")
				if id == "" {
					id = uniqueID(slug.Make(text), used)
					n.Attr = append(n.Attr, html.Attribute{Key: "id", Val: id})
				} else {
					used[id] = true
				}
				toc = append(toc, Heading{Level: level, ID: id, Text: text})
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}

	var out bytes.Buffer
	for _, node := range nodes {
		walk(node)
		if err := html.Render(&out, node); err != nil {
			return nil, nil, err
		}
	}

	return out.Bytes(), toc, nil
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(textContent(child))
	}
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// uniqueID 依次尝试 base、base-1、base-2…，返回第一个未被占用的 id。
func uniqueID(base string, used map[string]bool) string {
	if base == "" {
		base = "section"
	}
	id := base
	for n := 1; used[id]; n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	used[id] = true
	return id
}

// WordCount 统计以空白分隔的词数。
func WordCount(content string) int {
	return len(strings.Fields(content))
}

// ReadingTime 按每分钟 200 词估算阅读分钟数，四舍五入且至少为 1。
func ReadingTime(content string) int {
	minutes := int(math.Round(float64(WordCount(content)) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

var markupReplacer = strings.NewReplacer(
	"#", " ",
	"*", " ",
	"`", " ",
	"_", " ",
	">", " ",
	"[", " ",
	"]", " ",
	"(", " ",
	")", " ",
	"|", " ",
)

// Excerpt 去掉常见 Markdown 标记后截取前 words 个词。
func Excerpt(content string, words int) string {
	fields := strings.Fields(markupReplacer.Replace(content))
	if len(fields) == 0 {
		return ""
	}
	if words <= 0 || len(fields) <= words {
		return strings.Join(fields, " ")
	}
	excerpt := strings.Join(fields[:words], " ")
	return strings.TrimRight(excerpt, ",.;:") + "…"
}
