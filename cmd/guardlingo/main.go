// Command guardlingo はguardlingo管理APIのエントリーポイント。
//
// サブコマンド:
//
//	serve        APIサーバー（デフォルト）
//	worker       孤立アカウント回収と期限切れセッション削除
//	migrate      データベースマイグレーション
//	healthcheck  Dockerヘルスチェック
//	create-admin 最初のスーパー管理者の作成
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/guardlingo/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "guardlingo: %v\n", err)
		os.Exit(1)
	}
}
