package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/angelmondragon/hatchery-backend/internal/notifications"
	"github.com/angelmondragon/hatchery-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/hatchery-backend/pkg/errors"
	"github.com/angelmondragon/hatchery-backend/pkg/logger"
)

// ListNotifications returns the caller's inbox, newest first.
// ?unreadOnly=true hides read entries.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return asCaller(logg, func(r *http.Request, caller auth.Identity) (int, any, error) {
		page, err := paginationParams(r)
		if err != nil {
			return 0, nil, err
		}
		params := notifications.ListParams{UserID: caller.UserID, Limit: page.Limit, Cursor: page.Cursor}
		if raw := strings.TrimSpace(r.URL.Query().Get("unreadOnly")); raw != "" {
			if params.UnreadOnly, err = strconv.ParseBool(raw); err != nil {
				return 0, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unreadOnly value").
					WithDetails(map[string]any{"field": "unreadOnly"})
			}
		}
		return ok(svc.List(r.Context(), params))
	})
}

func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return asCaller(logg, func(r *http.Request, caller auth.Identity) (int, any, error) {
		id, err := uuidParam(r, "notificationId")
		if err != nil {
			return 0, nil, err
		}
		if err := svc.MarkRead(r.Context(), caller.UserID, id); err != nil {
			return 0, nil, err
		}
		return ok(map[string]bool{"read": true}, nil)
	})
}

func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return asCaller(logg, func(r *http.Request, caller auth.Identity) (int, any, error) {
		updated, err := svc.MarkAllRead(r.Context(), caller.UserID)
		return ok(map[string]int64{"updated": updated}, err)
	})
}
