package domain

import "errors"

var (
	ErrNotFound                 = errors.New("not found")
	ErrAuthFailure              = errors.New("gateway rejected credentials")
	ErrChargeCreationFailed     = errors.New("charge creation failed")
	ErrPayoutFailed             = errors.New("payout request failed")
	ErrMalformedGatewayResponse = errors.New("unrecognized gateway response shape")
	ErrDuplicateTransaction     = errors.New("transaction id already recorded")
	ErrUnknownTransaction       = errors.New("unknown transaction id")
	ErrUnresolvedPayment        = errors.New("payment event resolves to no account")
	ErrUnknownAccount           = errors.New("unknown account")
	ErrDeliveryIncomplete       = errors.New("confirmation sent but asset transfer failed")
	ErrInvalidPixKey            = errors.New("pix key must be 11 digits")
	ErrBelowMinimum             = errors.New("balance below withdrawal minimum")
	ErrInsufficientBalance      = errors.New("insufficient balance")
)
