package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/mpopescu/autochecks/internal/client/models"
)

// AddVehicle interactively collects and saves a new vehicle.
func (a *App) AddVehicle(ctx context.Context) error {
	plate, err := getSimpleText(a.reader, "Enter plate", a.out)
	if err != nil {
		return err
	}
	vin, err := getSimpleText(a.reader, "Enter VIN (empty to skip)", a.out)
	if err != nil {
		return err
	}
	notes, err := getSimpleText(a.reader, "Notes (empty to skip)", a.out)
	if err != nil {
		return err
	}

	itp, err := GetDate(a.reader, "ITP expiry", a.out)
	if err != nil {
		return err
	}
	rca, err := GetDate(a.reader, "RCA expiry", a.out)
	if err != nil {
		return err
	}
	vignette, err := GetDate(a.reader, "Vignette expiry", a.out)
	if err != nil {
		return err
	}

	v, err := a.vehicles.Add(ctx, models.Vehicle{
		Plate:                plate,
		VIN:                  vin,
		Notes:                notes,
		ITPExpiryMillis:      itp,
		RCAExpiryMillis:      rca,
		VignetteExpiryMillis: vignette,
	})
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	fmt.Fprintf(a.out, "Added vehicle %d (%s)\n", v.ID, v.Plate)
	return nil
}

// List prints the active vehicles with their document expiries.
func (a *App) List(ctx context.Context) error {
	vehicles, err := a.vehicles.List(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	if len(vehicles) == 0 {
		fmt.Fprintln(a.out, "No vehicles.")
		return nil
	}

	for _, v := range vehicles {
		fmt.Fprintf(a.out, "%3d  %-10s  ITP %-10s  RCA %-10s  Vignette %-10s",
			v.ID, v.Plate,
			formatDate(v.ITPExpiryMillis),
			formatDate(v.RCAExpiryMillis),
			formatDate(v.VignetteExpiryMillis))
		if v.VIN != "" {
			fmt.Fprintf(a.out, "  VIN %s", v.VIN)
		}
		fmt.Fprintln(a.out)
	}
	return nil
}

// Delete soft-deletes a vehicle by id.
func (a *App) Delete(ctx context.Context) error {
	id, err := GetInt64(a.reader, "Enter vehicle id to delete", a.out)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	if err := a.vehicles.Remove(ctx, id); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	fmt.Fprintln(a.out, "Deleted.")
	return nil
}

// Reminders prints the expiry posture for every tracked document, most
// urgent first.
func (a *App) Reminders(ctx context.Context) error {
	states, err := a.vehicles.Reminders(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	if len(states) == 0 {
		fmt.Fprintln(a.out, "No expiries tracked.")
		return nil
	}

	for _, r := range states {
		fmt.Fprintf(a.out, "%-10s %-9s %-10s %4d days  [%s]\n",
			r.Plate, r.Type, formatDate(r.ExpiresAt), r.DaysLeft, r.Urgency)
	}
	return nil
}

func formatDate(millis int64) string {
	if millis == 0 {
		return "-"
	}
	return time.UnixMilli(millis).UTC().Format("2006-01-02")
}
