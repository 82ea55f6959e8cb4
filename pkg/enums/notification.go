package enums

// NotificationType mirrors the notification_type Postgres enum. The order
// consumer only writes order_status; the rest are reserved for admin tooling.
type NotificationType string

const (
	NotificationTypeOrderStatus   NotificationType = "order_status"
	NotificationTypeStockAlert    NotificationType = "stock_alert"
	NotificationTypeDiscountAlert NotificationType = "discount_alert"
	NotificationTypeAdminMessage  NotificationType = "admin_message"
)

var notificationTypes = []NotificationType{
	NotificationTypeOrderStatus,
	NotificationTypeStockAlert,
	NotificationTypeDiscountAlert,
	NotificationTypeAdminMessage,
}

func (n NotificationType) IsValid() bool { return oneOf(n, notificationTypes) }

func ParseNotificationType(value string) (NotificationType, error) {
	return parse("notification type", value, notificationTypes, false)
}
