// Package logger はslogによる構造化ログのセットアップを提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup は構造化ログ出力のslog.Loggerを生成して返す。
// 本番ではJSONハンドラー、developmentではデバッグレベルのテキストハンドラーを使用する。
func Setup(w io.Writer, development bool) *slog.Logger {
	var handler slog.Handler
	if development {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return slog.New(handler)
}

// SetupDefault は構造化ログ出力をグローバルロガーとして設定する。
// writerがnilの場合はos.Stdoutに出力する。
func SetupDefault(w io.Writer, development bool) {
	if w == nil {
		w = os.Stdout
	}
	slog.SetDefault(Setup(w, development))
}
