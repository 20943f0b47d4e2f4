package main

import (
	"fmt"
	"log"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/database"
)

// dbcheck は DATABASE_URL への接続を確認し、results テーブルを作成します。
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("エラー: 設定の読み込みに失敗しました: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("エラー: DATABASE_URL 環境変数が設定されていません。")
	}

	fmt.Println("テスト開始: データベース接続を試行中...")
	dbService, err := database.NewDatabaseService(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("エラー: %v", err)
	}
	defer dbService.Close()
	fmt.Println("成功: データベースに正常に接続し、Pingが成功しました！")

	version, err := dbService.ServerVersion()
	if err != nil {
		log.Printf("警告: %v", err)
	} else {
		fmt.Printf("データベースバージョン: %s\n", version)
	}

	if err := dbService.EnsureSchema(); err != nil {
		log.Fatalf("エラー: %v", err)
	}
	fmt.Println("成功: results テーブルを確認しました。")
}
