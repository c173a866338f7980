package utils

import (
	"log"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// CloseSegment はセグメントをエラー情報付きで閉じます
// セグメントの開始に失敗している場合（nil）は何もしません
func CloseSegment(seg *xray.Segment, err error) {
	if seg == nil {
		return
	}
	seg.Close(err)
}

// AddMetadata はセグメントにメタデータを追加します
// 追加に失敗しても処理は継続し、ログのみ出力します
func AddMetadata(seg *xray.Segment, key string, value interface{}) {
	if seg == nil {
		return
	}
	if err := seg.AddMetadata(key, value); err != nil {
		log.Printf("Failed to add %s metadata: %v", key, err)
	}
}
