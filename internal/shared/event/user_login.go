package event

import "time"

const UserLoginAlertDestination string = "user_login_alert"
const UserLoginAlertConsumerNotification string = "user_login_alert_notification"

type UserLoginAlertMessage struct {
	UserID   string    `json:"user_id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	LoginAt  time.Time `json:"login_at"`
}
