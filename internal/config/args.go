package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // skip

// SendArgs are the positional inputs of the send command.
type SendArgs struct {
	Login          string `validate:"required"`
	Password       string `validate:"required"`
	SharedSecret   string `validate:"required,base64"`
	IdentitySecret string `validate:"required,base64"`
	TradeOfferLink string `validate:"required,url"`
	Inventories    string
}

// ParseSendArgs maps positional arguments onto SendArgs.
// The inventory list is optional and defaults to the primary inventory.
func ParseSendArgs(args []string) (*SendArgs, error) {
	if len(args) < 5 {
		return nil, fmt.Errorf("%w: expected 5 arguments, got %d", ErrInvalidArguments, len(args))
	}

	sa := &SendArgs{
		Login:          args[0],
		Password:       args[1],
		SharedSecret:   args[2],
		IdentitySecret: args[3],
		TradeOfferLink: args[4],
		Inventories:    DefaultInventoryPairs,
	}
	if len(args) > 5 && strings.TrimSpace(args[5]) != "" {
		sa.Inventories = args[5]
	}

	if err := sa.Validate(); err != nil {
		return nil, err
	}
	return sa, nil
}

// Validate checks that every required input is present and well-formed.
func (a *SendArgs) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}
