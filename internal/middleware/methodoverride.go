package middleware

import (
	"net/http"
	"strings"
)

// methodOverrideField はフォームでHTTPメソッドを上書きするための隠しフィールド名。
const methodOverrideField = "_method"

// NewMethodOverrideMiddleware はPOSTフォームの_methodフィールドによる
// HTTPメソッドの上書きを行うミドルウェアを返す。
// HTMLフォームはGET/POSTしか送信できないため、編集・削除フォームは
// _method=PUT / _method=DELETE を隠しフィールドで指定する。
// 上書きはPOSTリクエストに対してのみ有効で、PUTとDELETEのみ許可する。
func NewMethodOverrideMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				// ParseFormはボディを消費するが、以降のハンドラーは
				// パース済みのr.Formを参照するため問題ない
				if err := r.ParseForm(); err == nil {
					switch strings.ToUpper(r.PostFormValue(methodOverrideField)) {
					case http.MethodPut:
						r.Method = http.MethodPut
					case http.MethodDelete:
						r.Method = http.MethodDelete
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
