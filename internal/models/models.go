package models

import "time"

// Roles scale the daily question quota: premium gets 5x the base limit and
// admins are unlimited.
const (
	RoleUser    = "user"
	RolePremium = "premium"
	RoleAdmin   = "admin"
)

// GuestAuthor is the chat history owner for unauthenticated demo traffic.
const GuestAuthor = "guest"

type User struct {
	ID             string     `db:"id" json:"id"`
	Username       string     `db:"username" json:"username"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	Role           string     `db:"role" json:"role"`
	IsActive       bool       `db:"is_active" json:"isActive"`
	FailedLogins   int        `db:"failed_logins" json:"-"`
	LockUntil      *time.Time `db:"lock_until" json:"-"`
	QuestionsToday int        `db:"questions_today" json:"questionsToday"`
	QuestionsMonth int        `db:"questions_month" json:"questionsMonth"`
	UsageDate      string     `db:"usage_date" json:"-"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
	LastLoginAt    *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
}

// IsLocked holds iff LockUntil is set and in the future.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

const (
	MessageRoleUser = "user"
	MessageRoleBot  = "bot"
)

type ChatMessage struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversationId"`
	Author         string    `db:"author" json:"author"`
	Role           string    `db:"role" json:"role"`
	Text           string    `db:"text" json:"text"`
	Formulas       []string  `db:"-" json:"formulas,omitempty"`
	FormulasRaw    []byte    `db:"formulas" json:"-"`
	VBACode        string    `db:"vba_code" json:"vbaCode,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}
