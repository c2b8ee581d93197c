package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mpopescu/autochecks/internal/client/models"
)

// Settings prints the current device settings.
func (a *App) Settings(ctx context.Context) error {
	st, err := a.settings.Get(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	fmt.Fprintln(a.out, "Company:       ", models.CompanyDisplayName(st))
	fmt.Fprintln(a.out, "Username:      ", valueOr(st.Username, "-"))
	fmt.Fprintln(a.out, "Contact email: ", valueOr(st.ContactEmail, "-"))
	fmt.Fprintln(a.out, "Timezone:      ", valueOr(st.Timezone, "-"))
	fmt.Fprintln(a.out, "Lead days:     ", st.ReminderLeadDays)
	fmt.Fprintln(a.out, "Auto-sync:     ", st.CloudAutoSync)
	if st.CloudUserEmail != "" {
		fmt.Fprintln(a.out, "Account:       ", st.CloudUserEmail)
		fmt.Fprintln(a.out, "Last synced:   ", valueOr(formatDate(st.CloudLastSyncedAt), "-"))
	}
	return nil
}

// AutoSync toggles background pushing of local changes.
func (a *App) AutoSync(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, "Auto-sync (on/off)", a.out)
	if err != nil {
		return err
	}

	var enabled bool
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "on", "true", "yes":
		enabled = true
	case "off", "false", "no":
		enabled = false
	default:
		fmt.Fprintln(a.out, "Expected 'on' or 'off'.")
		return fmt.Errorf("invalid answer %q", answer)
	}

	if err := a.settings.SetAutoSync(ctx, enabled); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	fmt.Fprintln(a.out, "Auto-sync set to", enabled)
	return nil
}

func valueOr(s, fallback string) string {
	if s == "" || s == "-" {
		return fallback
	}
	return s
}
