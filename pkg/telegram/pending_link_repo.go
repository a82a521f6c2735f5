package telegram

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/keepsake/keepsake/pkg/user"
	log "github.com/sirupsen/logrus"
)

// PendingLinkRepository stores chats that sent /start before a user with
// their Telegram username existed. Keys are normalized usernames.
type PendingLinkRepository interface {
	SavePendingLink(ctx context.Context, telegramUsername string, chatId int64) error
	TakePendingLink(ctx context.Context, telegramUsername string) (int64, bool, error)
}

type PendingLinkRepositoryImpl struct {
	db *pgxpool.Pool
}

func NewPendingLinkRepository(db *pgxpool.Pool) *PendingLinkRepositoryImpl {
	return &PendingLinkRepositoryImpl{db: db}
}

func (r *PendingLinkRepositoryImpl) SavePendingLink(ctx context.Context, telegramUsername string, chatId int64) error {
	query := `INSERT INTO telegram_pending_link (telegram_username, chat_id) VALUES ($1, $2)
			  ON CONFLICT (telegram_username) DO UPDATE SET chat_id = EXCLUDED.chat_id, created_at = now()`
	_, err := r.db.Exec(ctx, query, user.NormalizeTelegramUsername(telegramUsername), chatId)
	if err != nil {
		log.Errorf("failed to save pending telegram link: %v", err)
		return err
	}
	return nil
}

func (r *PendingLinkRepositoryImpl) TakePendingLink(ctx context.Context, telegramUsername string) (int64, bool, error) {
	query := `DELETE FROM telegram_pending_link WHERE telegram_username = $1 RETURNING chat_id`
	var chatId int64
	err := r.db.QueryRow(ctx, query, user.NormalizeTelegramUsername(telegramUsername)).Scan(&chatId)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	} else if err != nil {
		log.Errorf("failed to take pending telegram link: %v", err)
		return 0, false, err
	}
	return chatId, true, nil
}

type StubPendingLinkRepository struct {
	mu    sync.Mutex
	links map[string]int64
}

func NewStubPendingLinkRepository() *StubPendingLinkRepository {
	return &StubPendingLinkRepository{links: map[string]int64{}}
}

func (s *StubPendingLinkRepository) SavePendingLink(ctx context.Context, telegramUsername string, chatId int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[user.NormalizeTelegramUsername(telegramUsername)] = chatId
	return nil
}

func (s *StubPendingLinkRepository) TakePendingLink(ctx context.Context, telegramUsername string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := user.NormalizeTelegramUsername(telegramUsername)
	chatId, ok := s.links[key]
	delete(s.links, key)
	return chatId, ok, nil
}
