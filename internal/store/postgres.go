package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"excelbot-backend-go/internal/knowledge"
	"excelbot-backend-go/internal/models"
)

// PostgresKnowledgeStore persists entries in knowledge_entries with the list
// fields as jsonb columns.
type PostgresKnowledgeStore struct {
	DB *sqlx.DB
}

type knowledgeRow struct {
	ID          string `db:"id"`
	Kind        string `db:"kind"`
	Category    string `db:"category"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Keywords    []byte `db:"keywords"`
	Syntax      string `db:"syntax"`
	Example     string `db:"example"`
	Steps       []byte `db:"steps"`
	Code        string `db:"code"`
	Dos         []byte `db:"dos"`
	Donts       []byte `db:"donts"`
	Question    string `db:"question"`
	Answer      string `db:"answer"`
	Votes       int    `db:"votes"`
}

func (r knowledgeRow) toEntry() knowledge.Entry {
	entry := knowledge.Entry{
		ID:          r.ID,
		Kind:        r.Kind,
		Category:    r.Category,
		Name:        r.Name,
		Description: r.Description,
		Syntax:      r.Syntax,
		Example:     r.Example,
		Code:        r.Code,
		Question:    r.Question,
		Answer:      r.Answer,
		Votes:       r.Votes,
	}
	_ = json.Unmarshal(r.Keywords, &entry.Keywords)
	_ = json.Unmarshal(r.Steps, &entry.Steps)
	_ = json.Unmarshal(r.Dos, &entry.Dos)
	_ = json.Unmarshal(r.Donts, &entry.Donts)
	return entry
}

func marshalList(items []string) []byte {
	if items == nil {
		items = []string{}
	}
	raw, _ := json.Marshal(items)
	return raw
}

const knowledgeColumns = `id, kind, category, name, description, keywords, syntax, example, steps, code, dos, donts, question, answer, votes`

func (s *PostgresKnowledgeStore) Find(ctx context.Context, filter KnowledgeFilter) ([]knowledge.Entry, int, error) {
	filter.normalize()
	where := []string{"TRUE"}
	args := []interface{}{}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		where = append(where, "kind = $"+strconv.Itoa(len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, "category = $"+strconv.Itoa(len(args)))
	}
	if query := strings.TrimSpace(filter.Query); query != "" {
		args = append(args, "%"+strings.ToLower(query)+"%")
		n := strconv.Itoa(len(args))
		where = append(where, "(lower(name) LIKE $"+n+" OR lower(description) LIKE $"+n+" OR keywords::text ILIKE $"+n+")")
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := s.DB.GetContext(ctx, &total, "SELECT count(*) FROM knowledge_entries WHERE "+clause, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	rows := []knowledgeRow{}
	err := s.DB.SelectContext(ctx, &rows, `
SELECT `+knowledgeColumns+`
FROM knowledge_entries
WHERE `+clause+`
ORDER BY votes DESC, name ASC
LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	items := make([]knowledge.Entry, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntry())
	}
	return items, total, nil
}

func (s *PostgresKnowledgeStore) GetByName(ctx context.Context, kind, name string) (knowledge.Entry, error) {
	row := knowledgeRow{}
	err := s.DB.GetContext(ctx, &row, `
SELECT `+knowledgeColumns+`
FROM knowledge_entries
WHERE kind = $1 AND lower(name) = $2
`, kind, strings.ToLower(name))
	if errors.Is(err, sql.ErrNoRows) {
		return knowledge.Entry{}, ErrNotFound
	}
	if err != nil {
		return knowledge.Entry{}, err
	}
	return row.toEntry(), nil
}

func (s *PostgresKnowledgeStore) List(ctx context.Context, kinds ...string) ([]knowledge.Entry, error) {
	rows := []knowledgeRow{}
	var err error
	if len(kinds) == 0 {
		err = s.DB.SelectContext(ctx, &rows, `SELECT `+knowledgeColumns+` FROM knowledge_entries ORDER BY name ASC`)
	} else {
		var query string
		var args []interface{}
		query, args, err = sqlx.In(`SELECT `+knowledgeColumns+` FROM knowledge_entries WHERE kind IN (?) ORDER BY name ASC`, kinds)
		if err != nil {
			return nil, err
		}
		err = s.DB.SelectContext(ctx, &rows, s.DB.Rebind(query), args...)
	}
	if err != nil {
		return nil, err
	}
	items := make([]knowledge.Entry, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntry())
	}
	return items, nil
}

func (s *PostgresKnowledgeStore) Insert(ctx context.Context, entry knowledge.Entry) (knowledge.Entry, error) {
	var exists bool
	err := s.DB.GetContext(ctx, &exists, `
SELECT EXISTS(SELECT 1 FROM knowledge_entries WHERE kind = $1 AND lower(name) = $2)
`, entry.Kind, strings.ToLower(entry.Name))
	if err != nil {
		return knowledge.Entry{}, err
	}
	if exists {
		return knowledge.Entry{}, ErrConflict
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO knowledge_entries (`+knowledgeColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
`, entry.ID, entry.Kind, entry.Category, entry.Name, entry.Description,
		marshalList(entry.Keywords), entry.Syntax, entry.Example, marshalList(entry.Steps),
		entry.Code, marshalList(entry.Dos), marshalList(entry.Donts),
		entry.Question, entry.Answer, entry.Votes)
	if err != nil {
		return knowledge.Entry{}, err
	}
	return entry, nil
}

func (s *PostgresKnowledgeStore) Vote(ctx context.Context, name string, helpful bool) (int, error) {
	delta := 1
	if !helpful {
		delta = -1
	}
	var votes int
	err := s.DB.GetContext(ctx, &votes, `
UPDATE knowledge_entries
SET votes = GREATEST(votes + $1, 0)
WHERE kind = $2 AND lower(name) = $3
RETURNING votes
`, delta, knowledge.KindFAQ, strings.ToLower(name))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return votes, err
}

// PostgresUserStore persists users. Uniqueness is enforced by the schema and
// mapped to ErrConflict via an existence pre-check, matching the memory
// store's behavior.
type PostgresUserStore struct {
	DB *sqlx.DB
}

const userColumns = `id, username, email, password_hash, role, is_active, failed_logins, lock_until, questions_today, questions_month, usage_date, created_at, updated_at, last_login_at`

func (s *PostgresUserStore) Create(ctx context.Context, user *models.User) error {
	var exists bool
	err := s.DB.GetContext(ctx, &exists, `
SELECT EXISTS(SELECT 1 FROM users WHERE lower(username) = $1 OR lower(email) = $2)
`, strings.ToLower(user.Username), strings.ToLower(user.Email))
	if err != nil {
		return err
	}
	if exists {
		return ErrConflict
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO users (`+userColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`, user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.IsActive,
		user.FailedLogins, user.LockUntil, user.QuestionsToday, user.QuestionsMonth,
		user.UsageDate, user.CreatedAt, user.UpdatedAt, user.LastLoginAt)
	return err
}

func (s *PostgresUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	user := models.User{}
	err := s.DB.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *PostgresUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user := models.User{}
	err := s.DB.GetContext(ctx, &user, `
SELECT `+userColumns+` FROM users WHERE lower(username) = $1
`, strings.ToLower(username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *PostgresUserStore) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	result, err := s.DB.ExecContext(ctx, `
UPDATE users
SET username = $2, email = $3, password_hash = $4, role = $5, is_active = $6,
    failed_logins = $7, lock_until = $8, questions_today = $9, questions_month = $10,
    usage_date = $11, updated_at = $12, last_login_at = $13
WHERE id = $1
`, user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.IsActive,
		user.FailedLogins, user.LockUntil, user.QuestionsToday, user.QuestionsMonth,
		user.UsageDate, user.UpdatedAt, user.LastLoginAt)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresChatStore keeps the same bounded window as the memory store by
// deleting rows past the cutoff after each append.
type PostgresChatStore struct {
	DB *sqlx.DB
}

func (s *PostgresChatStore) Append(ctx context.Context, msg models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO chat_messages (id, conversation_id, author, role, text, formulas, vba_code, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, msg.ID, msg.ConversationID, msg.Author, msg.Role, msg.Text, marshalList(msg.Formulas), msg.VBACode, msg.CreatedAt)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `
DELETE FROM chat_messages
WHERE author = $1 AND id NOT IN (
  SELECT id FROM chat_messages WHERE author = $1 ORDER BY created_at DESC LIMIT $2
)
`, msg.Author, MaxHistoryPerAuthor)
	return err
}

func (s *PostgresChatStore) History(ctx context.Context, author string) ([]models.ChatMessage, error) {
	rows := []models.ChatMessage{}
	err := s.DB.SelectContext(ctx, &rows, `
SELECT id, conversation_id, author, role, text, formulas, vba_code, created_at
FROM chat_messages
WHERE author = $1
ORDER BY created_at ASC
`, author)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		_ = json.Unmarshal(rows[i].FormulasRaw, &rows[i].Formulas)
		rows[i].FormulasRaw = nil
	}
	return rows, nil
}

func (s *PostgresChatStore) Clear(ctx context.Context, author string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM chat_messages WHERE author = $1`, author)
	return err
}
