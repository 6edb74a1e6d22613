package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories bundles the repositories sharing one database handle.
type Repositories struct {
	Users    UserRepository
	Classes  ClassRepository
	Students StudentRepository
	Messages MessageRepository
	Credits  CreditRepository
	UserLogs ActivityLogRepository
	Events   EventRepository
}

// New binds every repository to db.
func New(db *gorm.DB) Repositories {
	return Repositories{
		Users:    NewUserRepository(db),
		Classes:  NewClassRepository(db),
		Students: NewStudentRepository(db),
		Messages: NewMessageRepository(db),
		Credits:  NewCreditRepository(db),
		UserLogs: NewActivityLogRepository(db),
		Events:   NewEventRepository(db),
	}
}

// Transactor runs a unit of work against repositories bound to one transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor constructs a Transactor on top of db.
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

func paginate(query *gorm.DB, page, pageSize int) *gorm.DB {
	if pageSize <= 0 {
		return query
	}
	if page <= 0 {
		page = 1
	}
	return query.Offset((page - 1) * pageSize).Limit(pageSize)
}
