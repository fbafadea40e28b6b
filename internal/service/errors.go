package service

import "errors"

var (
	ErrValidation        = errors.New("validation")         // 400
	ErrNotFound          = errors.New("not found")          // 404
	ErrForbidden         = errors.New("forbidden")          // 403
	ErrConflict          = errors.New("conflict")           // 409
	ErrInvalidSignature  = errors.New("invalid signature")  // 400
	ErrInsufficientStock = errors.New("insufficient stock") // 400
	ErrGateway           = errors.New("payment gateway")    // 500
)
