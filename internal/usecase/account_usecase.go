package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/iho/accountledger/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	accountRepo AccountRepository
	idGen       IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		idGen:       idGen,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Name            string
	CurrencyID      string
	OriginalType    domain.AccountType
	AccountableType string
	AccountableID   string
}

// CreateAccount creates a new account.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	var errs domain.ValidationErrors
	if strings.TrimSpace(input.Name) == "" {
		errs.Add("name", "can't be blank")
	}
	if strings.TrimSpace(input.CurrencyID) == "" {
		errs.Add("currency_id", "can't be blank")
	}
	if input.OriginalType == "" {
		errs.Add("original_type", "can't be blank")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:              uc.idGen.Generate(),
		Name:            strings.TrimSpace(input.Name),
		CurrencyID:      input.CurrencyID,
		OriginalType:    input.OriginalType,
		AccountableType: input.AccountableType,
		AccountableID:   input.AccountableID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accountRepo.List(ctx, limit, offset)
}
