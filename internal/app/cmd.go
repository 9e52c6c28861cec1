package app

import (
	"errors"
	"fmt"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandAdmin はユーザーの管理者フラグを変更する。種目カタログの編集権限に使う。
	CommandAdmin Command = "admin"
)

var commands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandMigrate):     CommandMigrate,
	string(CommandHealthcheck): CommandHealthcheck,
	string(CommandAdmin):       CommandAdmin,
}

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := commands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}

// errAdminUsage はadminサブコマンドの引数が不正な場合のエラー。
var errAdminUsage = errors.New("usage: mpfit admin grant|revoke <email>")

// AdminAction はadminサブコマンドの操作内容。
type AdminAction struct {
	Email string
	Admin bool
}

// ParseAdminArgs はadminサブコマンド以降の引数を解析する。
func ParseAdminArgs(args []string) (AdminAction, error) {
	if len(args) != 2 || args[1] == "" {
		return AdminAction{}, errAdminUsage
	}
	switch args[0] {
	case "grant":
		return AdminAction{Email: args[1], Admin: true}, nil
	case "revoke":
		return AdminAction{Email: args[1], Admin: false}, nil
	default:
		return AdminAction{}, fmt.Errorf("unknown admin action %q: %w", args[0], errAdminUsage)
	}
}
