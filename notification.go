package main

import "errors"

type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

type Notification struct {
	Visible bool             `json:"visible"`
	Text    string           `json:"text"`
	Kind    NotificationKind `json:"kind,omitempty"`
}

func notificationText(err error) string {
	var apiErr *ApiError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return string(NotifyError)
}
