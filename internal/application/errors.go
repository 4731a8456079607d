package application

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrEmotionUnknown     = errors.New("unknown emotion")
	ErrRewardUnknown      = errors.New("unknown reward")
	ErrBadMonth           = errors.New("unrecognized month format")
)
