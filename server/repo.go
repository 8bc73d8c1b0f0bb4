package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	auth "github.com/hbiu/lms-auth"
	"github.com/uptrace/bun"
)

// Users is the persistence surface the identity API needs
type Users interface {
	repository.Repository[*auth.User]

	GetByEmail(ctx context.Context, email string) (*auth.User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*auth.User, error)
	Register(ctx context.Context, user *auth.User) (*auth.User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *auth.User) (*auth.User, error)
}

type users struct {
	repository.Repository[*auth.User]
	db *bun.DB
}

var (
	_ Users                             = (*users)(nil)
	_ repository.Repository[*auth.User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*auth.User](db, repository.ModelHandlers[*auth.User]{
		NewRecord: func() *auth.User { return &auth.User{} },
		GetID: func(u *auth.User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *auth.User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *auth.User) (*auth.User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *auth.User) (*auth.User, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *users) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*auth.User, error) {
	record := &auth.User{}
	err := tx.NewSelect().
		Model(record).
		Where(fmt.Sprintf("?TableAlias.%s = ?", "email"), normalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func prepareUserDefaults(record *auth.User) {
	if record == nil {
		return
	}

	record.Email = normalizeEmail(record.Email)
	if record.Role == "" {
		record.Role = auth.RoleStudent
	}
	record.EnsureRole()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
