// Package errors 跨层共享的持久化错误
package errors

import "errors"

// ErrStaleHold 预留记录已不是 active（被其他实例提交或取消），本次写入作废
var ErrStaleHold = errors.New("预留已被其他操作修改，请刷新后重试")
