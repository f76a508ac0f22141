// Package view はHTMLテンプレートのレンダリングとテンプレートヘルパーを提供する。
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates
var templatesFS embed.FS

// Data はテンプレートに渡すデータ。
type Data map[string]any

// funcMap はテンプレートから呼び出せるヘルパー関数群。
var funcMap = template.FuncMap{
	"formatDate": FormatDate,
	"truncate":   Truncate,
	"stripTags":  StripTags,
	"editIcon":   EditIcon,
	"select":     Select,
	// ストーリー本文は保存時にサニタイズ済みのため、エスケープせずに出力する
	"rawHTML": func(s string) template.HTML { return template.HTML(s) },
}

// pageLayouts は各ページが使用するレイアウトの対応表。
// ランディング（ログイン）ページのみ専用レイアウトを使用する。
var pageLayouts = map[string]string{
	"login":           "layouts/login.html",
	"dashboard":       "layouts/main.html",
	"stories/index":   "layouts/main.html",
	"stories/show":    "layouts/main.html",
	"stories/add":     "layouts/main.html",
	"stories/edit":    "layouts/main.html",
	"errors/notfound": "layouts/main.html",
	"errors/server":   "layouts/main.html",
}

// Renderer は埋め込みテンプレートをパースして保持し、ページをレンダリングする。
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer は全ページテンプレートをパースしてRendererを生成する。
// テンプレートのパースエラーは起動時に検出される。
func NewRenderer() (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageLayouts))

	for page, layout := range pageLayouts {
		t, err := template.New("page").Funcs(funcMap).ParseFS(
			templatesFS,
			"templates/"+layout,
			"templates/"+page+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %q: %w", page, err)
		}
		pages[page] = t
	}

	return &Renderer{pages: pages}, nil
}

// Render は指定ページをレイアウト込みでレンダリングする。
// レンダリングエラー時に中途半端なレスポンスを返さないよう、
// 一度バッファに書き出してからレスポンスに書き込む。
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data Data) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown template page: %q", page)
	}

	if data == nil {
		data = Data{}
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render template %q: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
