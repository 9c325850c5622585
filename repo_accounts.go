package identity

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MarkVerifiedSQL flips the verification flag in place. Running it against an
// already verified account is a harmless no-op; the RETURNING clause tells us
// whether the account still exists.
var MarkVerifiedSQL = `UPDATE "accounts" AS "acc"
SET
	"is_verified" = TRUE,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."id" = ?
) RETURNING *;`

type Accounts interface {
	repository.Repository[*Account]

	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)

	Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error)

	MarkVerified(ctx context.Context, id uuid.UUID) (*Account, error)
	MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Account, error)
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
	// deterministicIDs derives account ids from the email via hashid so
	// re-creating the same address lands on the same id.
	deterministicIDs bool
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
	_ AccountStore                    = (*accounts)(nil)
)

type AccountsOption func(*accounts)

// WithDeterministicIDs derives new account ids from the email address.
func WithDeterministicIDs() AccountsOption {
	return func(a *accounts) {
		a.deterministicIDs = true
	}
}

func NewAccountsRepository(db *bun.DB, opts ...AccountsOption) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoAccounts := &accounts{
		Repository: repo,
		db:         db,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoAccounts)
		}
	}

	return repoAccounts
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *accounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.email = ?", strings.TrimSpace(email)).
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

func (a *accounts) Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	a.prepareAccountDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *accounts) MarkVerified(ctx context.Context, id uuid.UUID) (*Account, error) {
	return a.MarkVerifiedTx(ctx, a.db, id)
}

func (a *accounts) MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, tx, MarkVerifiedSQL, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return res[0], nil
}

func (a *accounts) prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		if a.deterministicIDs {
			if id, err := hashid.NewUUID(record.Email); err == nil {
				record.ID = id
			}
		}
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
	}
}
