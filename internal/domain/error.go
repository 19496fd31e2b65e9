package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Payment / verification errors
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
	ErrVerificationFailed  = errors.New("payment verification failed")
	ErrGatewayMismatch     = errors.New("gateway response does not match local payment")
	ErrDataIntegrity       = errors.New("persistent state violates a ledger invariant")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrWithdrawLimit       = errors.New("daily withdrawal limit exceeded")

	// Subscription errors
	ErrActiveSubscriptionExists = errors.New("an active subscription already exists")
	ErrNoActiveSubscription     = errors.New("no active subscription")

	// Infrastructure errors
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrInvalidExecContext = errors.New("invalid transaction execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrLockNotAcquired    = errors.New("could not acquire lock")
)
