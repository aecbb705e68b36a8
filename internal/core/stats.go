package core

import (
	"fmt"
	"time"
)

// RunStats は、1回の実行で処理した件数の集計です。
type RunStats struct {
	StartTime            time.Time // 開始時刻
	IdentifiersProcessed int       // 処理した図鑑番号の数
	IdentifiersFailed    int       // 一覧の取得に失敗した図鑑番号の数
	ReferencesFound      int       // 発見した画像URL数
	ImagesStored         int       // 保存した画像数
	ImagesSkipped        int       // 取得に失敗してスキップした画像数
	TotalBytesWritten    int64     // 合計書き込みサイズ（バイト）
}

// Merge は other の件数を加算します。開始時刻は早い方を残します。
func (s *RunStats) Merge(other RunStats) {
	if s.StartTime.IsZero() || (!other.StartTime.IsZero() && other.StartTime.Before(s.StartTime)) {
		s.StartTime = other.StartTime
	}
	s.IdentifiersProcessed += other.IdentifiersProcessed
	s.IdentifiersFailed += other.IdentifiersFailed
	s.ReferencesFound += other.ReferencesFound
	s.ImagesStored += other.ImagesStored
	s.ImagesSkipped += other.ImagesSkipped
	s.TotalBytesWritten += other.TotalBytesWritten
}

// FormatSessionInfo は集計を1行の文字列にフォーマットします。
func (s RunStats) FormatSessionInfo() string {
	elapsed := time.Since(s.StartTime)
	minutes := int(elapsed.Minutes())
	seconds := int(elapsed.Seconds()) % 60

	// サイズをMB単位に変換
	sizeMB := float64(s.TotalBytesWritten) / (1024 * 1024)

	return fmt.Sprintf("経過: %dm%ds | ポケモン: %d (失敗 %d) | URL: %d | 保存: %d | スキップ: %d | %.1fMB",
		minutes, seconds, s.IdentifiersProcessed, s.IdentifiersFailed,
		s.ReferencesFound, s.ImagesStored, s.ImagesSkipped, sizeMB)
}
