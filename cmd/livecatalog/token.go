package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/voyagen/livecatalog/internal/auth"
	"github.com/voyagen/livecatalog/internal/config"
)

// mintToken writes a signed admin token for subject to w.
func mintToken(w io.Writer, cfg *config.Config, subject string, ttl time.Duration) error {
	if cfg.JWTSecret == "" {
		return errors.New("ADMIN_JWT_SECRET is not set")
	}
	if ttl <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	token, err := auth.JWT{Secret: []byte(cfg.JWTSecret)}.GenerateToken(subject, true, ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
