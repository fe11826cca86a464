// ABOUTME: One-time seeding of default operators and settings into an empty store
// ABOUTME: Runs after every successful open and after a reset

package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/niyog/copra-station/internal/store"
)

// defaultOperators are inserted whenever the operator collection is empty.
// Passwords are hashed at seed time, never stored in the clear.
var defaultOperators = []struct {
	username string
	password string
}{
	{"admin", "admin123"},
	{"cashier", "cashier123"},
}

// seed inserts the default operators and settings into an empty store.
// Collections that already hold records are left alone, so seeding is safe
// to run on every open.
func (a *Layer) seed(ctx context.Context, st store.Store) error {
	operators, err := st.CountOperators(ctx)
	if err != nil {
		return fmt.Errorf("counting operators: %w", err)
	}
	if operators == 0 {
		for _, cred := range defaultOperators {
			hash, err := bcrypt.GenerateFromPassword([]byte(cred.password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hashing password for %s: %w", cred.username, err)
			}
			op := &store.Operator{
				ID:           uuid.NewString(),
				Username:     cred.username,
				PasswordHash: string(hash),
				CreatedAt:    time.Now().UTC().Truncate(time.Second),
			}
			if err := st.CreateOperator(ctx, op); err != nil && !errors.Is(err, store.ErrUsernameExists) {
				return fmt.Errorf("seeding operator %s: %w", cred.username, err)
			}
		}
		a.logger.Info("seeded default operators", "count", len(defaultOperators))
	}

	settings, err := st.CountSettings(ctx)
	if err != nil {
		return fmt.Errorf("counting settings: %w", err)
	}
	if settings == 0 {
		defaults := []store.Setting{
			{Key: store.SettingUnitPrice, Value: store.DefaultSettingValue},
			{Key: store.SettingTransportFee, Value: store.DefaultSettingValue},
		}
		if err := st.PutSettings(ctx, defaults); err != nil {
			return fmt.Errorf("seeding settings: %w", err)
		}
		a.logger.Info("seeded default settings", "count", len(defaults))
	}

	return nil
}
