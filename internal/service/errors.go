// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// 基础错误类别，handler 层据此映射 HTTP 状态码。
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
)

// 具体的业务错误，均包装了上面的基础类别。
var (
	ErrMenuNotFound     = fmt.Errorf("menu %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrTemplateNotFound = fmt.Errorf("template %w", ErrNotFound)
	ErrVersionNotFound  = fmt.Errorf("version %w", ErrNotFound)
	ErrBoardNotFound    = fmt.Errorf("board %w", ErrNotFound)
	ErrPostNotFound     = fmt.Errorf("post %w", ErrNotFound)
	ErrContentNotFound  = fmt.Errorf("content %w", ErrNotFound)
	ErrMediaNotFound    = fmt.Errorf("media %w", ErrNotFound)

	ErrMenuHasChildren = fmt.Errorf("menu has children: %w", ErrConflict)
	ErrUsernameTaken   = fmt.Errorf("username already exists: %w", ErrConflict)
	ErrSlugTaken       = fmt.Errorf("slug already exists: %w", ErrConflict)
	ErrLastAdmin       = fmt.Errorf("cannot remove the last admin: %w", ErrConflict)
	ErrBoardInUse      = fmt.Errorf("board is referenced by a menu: %w", ErrConflict)
	ErrContentInUse    = fmt.Errorf("content is referenced by a menu: %w", ErrConflict)
	ErrVersionConflict = fmt.Errorf("template was modified concurrently: %w", ErrConflict)

	ErrInvalidMove = fmt.Errorf("invalid move: %w", ErrInvalidInput)
	ErrMenuCycle   = fmt.Errorf("move would create a cycle: %w", ErrInvalidInput)

	// ErrCorruptTree 表示数据库中的菜单数据本身不满足森林约束（重复 ID 或环）。
	ErrCorruptTree = errors.New("corrupt menu tree")
)

// notFound 把 gorm 的 ErrRecordNotFound 翻译成领域错误，其余错误原样返回。
func notFound(err, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicateKey 依赖 gorm.Config.TranslateError 把驱动的唯一约束错误翻译为 ErrDuplicatedKey。
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
