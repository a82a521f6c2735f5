package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrUserConflict is returned when the username, uid or Telegram username
	// already belongs to another user.
	ErrUserConflict = errors.New("user already exists")
)

const uniqueViolation = "23505"

// conflictOrErr maps unique constraint violations to ErrUserConflict.
func conflictOrErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrUserConflict, pgErr.ConstraintName)
	}
	return err
}

type Repo interface {
	CreateUser(ctx context.Context, user User) (int, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	GetUserByTelegramUsername(ctx context.Context, telegramUsername string) (User, error)
	// UpdateUser sets the display name and Telegram username. A changed
	// Telegram username clears the linked chat in the same write.
	UpdateUser(ctx context.Context, userId int, user User) (User, error)
	DeleteUser(ctx context.Context, id int) error
	// GetUsersWithTelegramChat returns every user with a notification
	// destination, ordered by id.
	GetUsersWithTelegramChat(ctx context.Context) ([]User, error)
	SetTelegramChat(ctx context.Context, userId int, chatId int64, linkedAt time.Time) error
	ClearTelegramChat(ctx context.Context, userId int) error
}

type UserRepoImpl struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

const userColumns = `id, uid, username, display_name, telegram_username, telegram_chat_id, telegram_linked_at, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.Id,
		&u.Uid,
		&u.Username,
		&u.DisplayName,
		&u.TelegramUsername,
		&u.TelegramChatId,
		&u.TelegramLinkedAt,
		&u.CreatedAt,
	)
	return u, err
}

func (u *UserRepoImpl) CreateUser(ctx context.Context, user User) (int, error) {
	query := `INSERT INTO users (uid, username, display_name, telegram_username) VALUES ($1, $2, $3, $4) RETURNING id`
	var id int
	err := u.db.QueryRow(ctx, query,
		user.Uid,
		user.Username,
		user.DisplayName,
		user.TelegramUsername,
	).Scan(&id)
	if err != nil {
		log.Errorf("failed to create user: %v", err)
		return 0, conflictOrErr(err)
	}
	return id, nil
}

func (u *UserRepoImpl) getOne(ctx context.Context, where string, arg any) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user, err := scanUser(u.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.getOne(ctx, "id = $1", id)
}

func (u *UserRepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return u.getOne(ctx, "uid = $1", uid)
}

func (u *UserRepoImpl) GetUserByTelegramUsername(ctx context.Context, telegramUsername string) (User, error) {
	if telegramUsername == "" {
		return User{}, ErrUserNotFound
	}
	return u.getOne(ctx, "lower(telegram_username) = lower($1)", telegramUsername)
}

func (u *UserRepoImpl) UpdateUser(ctx context.Context, userId int, user User) (User, error) {
	query := `UPDATE users SET
				display_name = $1,
				telegram_username = $2,
				telegram_chat_id = CASE WHEN telegram_username = $2 THEN telegram_chat_id END,
				telegram_linked_at = CASE WHEN telegram_username = $2 THEN telegram_linked_at END
			  WHERE id = $3`
	result, err := u.db.Exec(ctx, query, user.DisplayName, user.TelegramUsername, userId)
	if err != nil {
		log.Errorf("failed to update user %d: %v", userId, err)
		return User{}, conflictOrErr(err)
	}
	if result.RowsAffected() == 0 {
		log.Infof("no rows affected of updating user %d", userId)
		return User{}, ErrUserNotFound
	}
	return u.GetUser(ctx, userId)
}

func (u *UserRepoImpl) DeleteUser(ctx context.Context, id int) error {
	result, err := u.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (u *UserRepoImpl) GetUsersWithTelegramChat(ctx context.Context) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_chat_id IS NOT NULL ORDER BY id`
	rows, err := u.db.Query(ctx, query)
	if err != nil {
		log.Errorf("failed to get users with telegram chat: %v", err)
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0, 10)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			log.Errorf("failed to scan user: %v", err)
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over rows: %v", err)
		return nil, err
	}
	return users, nil
}

func (u *UserRepoImpl) SetTelegramChat(ctx context.Context, userId int, chatId int64, linkedAt time.Time) error {
	query := `UPDATE users SET telegram_chat_id = $1, telegram_linked_at = $2 WHERE id = $3`
	result, err := u.db.Exec(ctx, query, chatId, linkedAt, userId)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (u *UserRepoImpl) ClearTelegramChat(ctx context.Context, userId int) error {
	query := `UPDATE users SET telegram_chat_id = NULL, telegram_linked_at = NULL WHERE id = $1`
	result, err := u.db.Exec(ctx, query, userId)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
