package repo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"server/internal/domain"
)

// wrapErr maps driver-level failures onto the domain error taxonomy so the
// service layer can decide between not-found, retry and hard failure.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %w", domain.ErrTransientStore, err)
	}
	return err
}

// isTransient reports whether the failure is worth a bounded retry:
// connection-class errors, serialization failures, deadlocks and timeouts.
func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "08") {
			return true
		}
		switch pgErr.Code {
		case "40001", "40P01", "57014":
			return true
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return pgconn.Timeout(err)
}
