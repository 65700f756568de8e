// Package main provides localization for the frameset CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Logging": "ログ",
		"Reports": "レポート",

		// Root command
		"Build labeled frame datasets from raw videos": "動画からラベル付きフレームデータセットを作成",
		"Interrupted, shutting down...":                "中断されました。シャットダウン中...",

		// Global flags
		"Log level (debug, info, warn, error)":      "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                   "すべてのログ出力を抑制",
		"Write a Markdown run summary to this file": "実行サマリーをMarkdownでこのファイルに書き出す",
		"Write Prometheus metrics to this file":     "Prometheusメトリクスをこのファイルに書き出す",

		// Extract and preprocess commands
		"Extract labeled frames from the videos of every label directory": "各ラベルディレクトリの動画からラベル付きフレームを抽出",
		"Apply the preprocessing transformations to a frame dataset":      "フレームデータセットに前処理の変換を適用",
		"Dataset configuration file (YAML)":                               "データセット設定ファイル（YAML）",
		"Directory holding one subdirectory of videos per label":          "ラベルごとの動画サブディレクトリを含むディレクトリ",
		"Destination frame dataset directory":                             "出力先のフレームデータセットディレクトリ",
		"Source frame dataset directory":                                  "入力元のフレームデータセットディレクトリ",
		"Apply the preprocessing transformations before saving":           "保存前に前処理の変換を適用",
		"Path to the ffmpeg executable":                                   "ffmpeg実行ファイルのパス",
		"Frame rate of MJPEG streams":                                     "MJPEGストリームのフレームレート",
		"Number of preprocessing workers (0 = one per CPU)":               "前処理のワーカー数（0 = CPUごとに1つ）",

		// Review command
		"Review and correct the frame labels of one video":                   "1本の動画のフレームラベルを確認・修正",
		"Keys: n/right next, p/left previous, t cycle label, s save, q quit": "キー: n/right 次へ, p/left 前へ, t ラベル切替, s 保存, q 終了",
		"Frame directory of the video to review":                             "確認する動画のフレームディレクトリ",
		"Dataset directory to save into (default: parent of --frames)":       "保存先のデータセットディレクトリ（デフォルト: --frames の親）",
		"Classes to cycle through (default: configured classes)":             "切り替えるクラス（デフォルト: 設定済みのクラス）",
		"Image file updated with the current frame after every key":          "キー操作ごとに現在のフレームで更新される画像ファイル",
		"Font file (TTF) for the preview captions":                           "プレビューのキャプション用フォントファイル（TTF）",
		"Unknown key %q":                                                     "不明なキー %q",
		"Saved %d frames with %d corrections":                                "%d フレームを保存しました（修正 %d 件）",

		// Export command
		"Flatten a frame dataset into one directory per label for upload": "アップロード用にフレームデータセットをラベルごとのディレクトリへ展開",
		"Upload directory":                                                "アップロード用ディレクトリ",
		"Labels to leave out, e.g. unknown":                               "除外するラベル（例: unknown）",

		// Version command
		"Show version information": "バージョン情報を表示",
		"frameset version %s":      "frameset バージョン %s",

		// Run summary
		"Dataset Summary": "データセットサマリー",
		"Item":            "項目",
		"Value":           "値",
		"Operation":       "操作",
		"Source":          "入力元",
		"Destination":     "出力先",
		"Generated At":    "生成日時",
		"Elapsed":         "経過時間",
		"Totals":          "合計",
		"Videos":          "動画",
		"Succeeded":       "成功",
		"Failed":          "失敗",
		"Frames":          "フレーム",
		"Labels":          "ラベル",
		"Label":           "ラベル",
		"Video":           "動画",
		"Source Label":    "元ラベル",
		"Duration":        "長さ",
		"Status":          "状態",
		"OK":              "OK",
		"Failures":        "失敗一覧",
		"Settings":        "設定",
		"Transforms":      "変換",
		"None":            "なし",
		"Store Format":    "保存形式",
		"Quality":         "品質",
		"Workers":         "ワーカー数",
		"Frame Rate":      "フレームレート",
		"Generated by":    "生成:",
	})
}
