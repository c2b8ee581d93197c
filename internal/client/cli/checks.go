package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mpopescu/autochecks/internal/client/models"
)

// AddCheck interactively records a verification event for a vehicle.
func (a *App) AddCheck(ctx context.Context) error {
	id, err := GetInt64(a.reader, "Enter vehicle id", a.out)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	typ, err := getSimpleText(a.reader, "Check type (ITP, RCA, VIGNETTE)", a.out)
	if err != nil {
		return err
	}

	expiry, err := GetDate(a.reader, "New expiry", a.out)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	note, err := getSimpleText(a.reader, "Note (empty to skip)", a.out)
	if err != nil {
		return err
	}

	c, err := a.checks.Record(ctx, models.Check{
		VehicleID:    id,
		Type:         models.CheckType(strings.ToUpper(strings.TrimSpace(typ))),
		ExpiryMillis: expiry,
		Note:         note,
	})
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	fmt.Fprintf(a.out, "Recorded %s check, status %s\n", c.Type, c.Status)
	return nil
}

// Checks lists the check history for one vehicle, newest first.
func (a *App) Checks(ctx context.Context) error {
	id, err := GetInt64(a.reader, "Enter vehicle id", a.out)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	checks, err := a.checks.ForVehicle(ctx, id)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	if len(checks) == 0 {
		fmt.Fprintln(a.out, "No checks recorded.")
		return nil
	}

	for _, c := range checks {
		fmt.Fprintf(a.out, "%s  %-9s %-5s expiry %-10s",
			formatDate(c.CheckedAt), c.Type, c.Status, formatDate(c.ExpiryMillis))
		if c.Note != "" {
			fmt.Fprintf(a.out, "  %s", c.Note)
		}
		fmt.Fprintln(a.out)
	}
	return nil
}
