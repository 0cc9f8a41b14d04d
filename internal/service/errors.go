package service

import "errors"

var (
	ErrUnbalancedTransaction    = errors.New("transaction not balanced")
	ErrEmptyPosting             = errors.New("transaction has no lines or a zero-amount line")
	ErrNotFound                 = errors.New("not found")
	ErrDanglingAccountReference = errors.New("line references a missing account")
	ErrNothingStaged            = errors.New("nothing staged for account")
	ErrAccountNotFound          = errors.New("account not found")
	ErrAccountInUse             = errors.New("account is referenced by transactions")
	ErrDuplicateTransaction     = errors.New("transaction already exists")
	ErrTemplateInactive         = errors.New("recurring transaction is inactive")
	ErrInvalidFrequency         = errors.New("unknown recurrence frequency")
	ErrInvalidInput             = errors.New("invalid input")
)
