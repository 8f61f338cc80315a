package domain

import "time"

// SMTPSettings holds the email transport connection parameters.
type SMTPSettings struct {
	Host        string
	Port        int
	UseTLS      bool
	Username    string
	Password    string
	FromAddress string
}

// NoticeTemplate is a stored subject/body pair for one notice type.
// Bodies may contain {{user_name}}, {{plan_name}} and {{expiry_date}}
// placeholders; unknown tokens are delivered verbatim.
type NoticeTemplate struct {
	Subject string
	Body    string
}

// NotificationSettings is the single-row notification configuration:
// transport parameters plus the stored templates per notice type.
type NotificationSettings struct {
	SMTP      SMTPSettings
	Templates map[NoticeType]NoticeTemplate
	UpdatedAt time.Time
}
