package config

import (
	"errors"
	"fmt"
)

// Validate reports every required key that is unset.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("missing required env %s", "DATABASE_URL"))
	}
	if len(c.JWTSecret) == 0 {
		errs = append(errs, fmt.Errorf("missing required env %s", "JWT_SECRET"))
	}
	if c.RazorpayKeyID == "" {
		errs = append(errs, fmt.Errorf("missing required env %s", "RAZORPAY_KEY_ID"))
	}
	if c.RazorpayKeySecret == "" {
		errs = append(errs, fmt.Errorf("missing required env %s", "RAZORPAY_KEY_SECRET"))
	}
	return errors.Join(errs...)
}
