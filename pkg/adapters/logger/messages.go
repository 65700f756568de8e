package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Batch runs
		"Extracting frames from %s to %s":              "%s から %s へフレームを抽出します",
		"Extracting %s (%s)":                           "%s を抽出中 (%s)",
		"Preprocessing %s to %s with %d transforms":    "%[1]s を %[3]d 個の変換で前処理し %[2]s へ保存します",
		"Preprocessing %s":                             "%s を前処理中",
		"Saved %d frames of %s":                        "%[2]s の %[1]d フレームを保存しました",
		"Skipping %s: %v":                              "%s をスキップしました: %v",
		"Skipping corrupt dataset %s: %v":              "破損したデータセット %s をスキップしました: %v",
		"Failed to save %s: %v":                        "%s の保存に失敗しました: %v",
		"Label directory %s not found":                 "ラベルディレクトリ %s が見つかりません",
		"Processed %d videos: %d succeeded, %d failed": "%d 本の動画を処理しました: 成功 %d, 失敗 %d",
		"Summary written to %s":                        "サマリーを %s に書き出しました",
		"Metrics written to %s":                        "メトリクスを %s に書き出しました",

		// Decoders
		"ffmpeg not found, only MJPEG videos can be decoded": "ffmpeg が見つかりません。MJPEG 動画のみデコードできます",

		// Extract stage
		"Decoding %s":                 "%s をデコード中",
		"Extracted %d frames from %s": "%[2]s から %[1]d フレームを抽出しました",

		// Preprocess stage
		"Transforming %d frames with %d workers": "%d フレームを %d ワーカーで変換中",
		"Preprocessing completed":                "前処理が完了しました",

		// Frame store
		"Loaded %d frames from %s": "%[2]s から %[1]d フレームを読み込みました",
		"Saved %d frames to %s":    "%[2]s に %[1]d フレームを保存しました",
		"Removed stale frame %s":   "古いフレーム %s を削除しました",

		// Review
		"Frame %d relabeled to %s":                        "フレーム %d のラベルを %s に変更しました",
		"Committed %d frames of %s to %s":                 "%[2]s の %[1]d フレームを %[3]s に保存しました",
		"Failed to save preview: %v":                      "プレビューの保存に失敗しました: %v",
		"Font %s not usable, using the built-in face: %v": "フォント %s を使用できないため組み込みフォントを使います: %v",
		"Failed to save: %v":                              "保存に失敗しました: %v",
		"Quit with unsaved label changes":                 "未保存のラベル変更を残して終了しました",

		// Export
		"Exported %s":                          "%s を書き出しました",
		"Exported %d files of %d videos to %s": "%[2]d 本の動画の %[1]d ファイルを %[3]s に書き出しました",
	})
}

