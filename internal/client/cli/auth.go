package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/mpopescu/autochecks/internal/client/client"
	"github.com/mpopescu/autochecks/internal/client/sync"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for credentials and creates a new cloud account. The
// device stays signed out; use login afterwards.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	if err := a.auth.Register(ctx, email, string(password)); err != nil {
		fmt.Fprintln(a.out, "Registration failed:", err)
		return err
	}

	fmt.Fprintln(a.out, "Account created. Use 'login' to sign in.")
	return nil
}

// Login prompts for credentials, authenticates and hydrates local state for
// the account. An account with no cloud snapshot starts from a blank device
// state; otherwise the cloud snapshot is downloaded.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	res, err := a.auth.Login(ctx, email, string(password))
	if err != nil {
		switch {
		case errors.Is(err, client.ErrOffline):
			fmt.Fprintln(a.out, "Server unreachable. Try again when online.")
		case errors.Is(err, client.ErrUnauthorized):
			fmt.Fprintln(a.out, "Invalid email or password.")
		default:
			fmt.Fprintln(a.out, "Login failed:", err)
		}
		return err
	}

	fmt.Fprintln(a.out, sync.ResultMessage(res))
	return nil
}

// Logout drops the session and detaches this device from the account. Local
// data stays on the device.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		fmt.Fprintln(a.out, "Logout failed:", err)
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}
