package ingestion

import (
	"encoding/json"
	"fmt"
	"time"

	pkgErrors "fleet-compliance-monitor/pkg/errors"
	"fleet-compliance-monitor/pkg/utils"
)

// MediaMessage is one photo or video forwarded from a driver chat by
// the bot bridge.
type MediaMessage struct {
	ChatID   int64     `json:"chat_id" validate:"required"`
	Kind     string    `json:"kind" validate:"required,oneof=photo video"`
	FileRef  string    `json:"file_ref" validate:"required"`
	AlbumKey *string   `json:"album_key,omitempty"`
	Caption  *string   `json:"caption,omitempty"`
	SentAt   time.Time `json:"sent_at"`
}

// ChatEvent is a non-media event from a driver chat: a rename or a
// plain text message.
type ChatEvent struct {
	ChatID int64     `json:"chat_id" validate:"required"`
	Type   string    `json:"type" validate:"required,oneof=title_changed text"`
	Title  string    `json:"title,omitempty"`
	Text   string    `json:"text,omitempty"`
	SentAt time.Time `json:"sent_at"`
}

const (
	ChatEventTitleChanged = "title_changed"
	ChatEventText         = "text"
)

// ParseMediaMessage decodes and validates a media payload.
func ParseMediaMessage(payload []byte) (*MediaMessage, error) {
	var msg MediaMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("invalid media message: %w", err)
	}
	if err := utils.ValidateStruct(&msg); err != nil {
		return nil, pkgErrors.NewAppError(pkgErrors.CodeInvalidInput, "invalid media message", err)
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}
	return &msg, nil
}

// ParseChatEvent decodes and validates a chat event payload.
func ParseChatEvent(payload []byte) (*ChatEvent, error) {
	var ev ChatEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("invalid chat event: %w", err)
	}
	if err := utils.ValidateStruct(&ev); err != nil {
		return nil, pkgErrors.NewAppError(pkgErrors.CodeInvalidInput, "invalid chat event", err)
	}
	if ev.SentAt.IsZero() {
		ev.SentAt = time.Now()
	}
	return &ev, nil
}
