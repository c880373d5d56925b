package driver

import "errors"

var (
	ErrDriverNotFound = errors.New("driver not found")
	ErrChatTaken      = errors.New("chat is already linked to another driver")
	ErrNoChatLinked   = errors.New("driver has no linked chat")
	ErrChatPaused     = errors.New("driver chat is paused")
)
