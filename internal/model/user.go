// Package model はドメインモデルを定義する。
package model

import "time"

// Identity は認証バックエンド側のアカウントを表す。
// アプリケーションデータ（Profile）とは独立して管理され、
// ProfileのIDはIdentityのIDと一致する。
type Identity struct {
	ID        string
	Email     string
	Confirmed bool
	CreatedAt time.Time
}

// Session は管理者のログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
