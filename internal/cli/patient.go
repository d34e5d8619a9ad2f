package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/patientkeeper/internal/common"
	"github.com/dmitrijs2005/patientkeeper/internal/export"
	"github.com/dmitrijs2005/patientkeeper/internal/models"
	"github.com/dmitrijs2005/patientkeeper/internal/records"
)

func (a *App) requireStore() error {
	if !a.isLoggedIn() || a.store == nil {
		return common.ErrNotAuthenticated
	}
	return nil
}

// current resolves the selected patient. A stale selection drops the user
// back to the patient list.
func (a *App) current() (models.PatientRecord, error) {
	if err := a.requireStore(); err != nil {
		return models.PatientRecord{}, err
	}
	name, err := a.session.Current(a.store.Has)
	if err != nil {
		return models.PatientRecord{}, err
	}
	return a.store.Patient(name)
}

// List prints the patient names in ascending order.
func (a *App) List(ctx context.Context) error {
	if err := a.requireStore(); err != nil {
		return err
	}
	names := a.store.Names()
	if len(names) == 0 {
		fmt.Fprintln(a.out, "No patients yet. Use 'add' to create one.")
		return nil
	}
	for _, n := range names {
		fmt.Fprintln(a.out, n)
	}
	return nil
}

// Select opens the detail view of a patient. Without an argument the user
// picks from the list.
func (a *App) Select(ctx context.Context, args []string) error {
	if err := a.requireStore(); err != nil {
		return err
	}

	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		names := a.store.Names()
		if len(names) == 0 {
			fmt.Fprintln(a.out, "No patients yet. Use 'add' to create one.")
			return nil
		}
		var err error
		if name, err = GetChoice(a.reader, "Select a patient", names, a.out); err != nil {
			return err
		}
	}

	if err := a.session.Select(name, a.store.Has); err != nil {
		return err
	}
	return a.Show(ctx)
}

// AddPatient runs the "add patient" form.
func (a *App) AddPatient(ctx context.Context) error {
	if err := a.requireStore(); err != nil {
		return err
	}

	name, err := getSimpleText(a.reader, "Name", a.out)
	if err != nil {
		return err
	}
	age, err := GetInt(a.reader, "Age", models.MinAge, models.MaxAge, a.out)
	if err != nil {
		return err
	}
	weight, err := GetFloat(a.reader, "Weight (kg)", 0, a.out)
	if err != nil {
		return err
	}
	genders := make([]string, len(models.Genders))
	for i, g := range models.Genders {
		genders[i] = string(g)
	}
	gender, err := GetChoice(a.reader, "Gender", genders, a.out)
	if err != nil {
		return err
	}
	height, err := GetFloat(a.reader, "Height (cm)", 0, a.out)
	if err != nil {
		return err
	}
	sv, err := getSimpleText(a.reader, "Social Insurance Number", a.out)
	if err != nil {
		return err
	}

	rec := models.PatientRecord{
		Name:                  name,
		Age:                   age,
		Weight:                weight,
		Gender:                models.Gender(gender),
		Height:                height,
		SocialInsuranceNumber: sv,
	}
	if err := a.store.AddPatient(ctx, rec); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Patient %s added successfully!\n", name)
	return nil
}

// AddMedication runs the "add medication" form for the selected patient.
func (a *App) AddMedication(ctx context.Context) error {
	rec, err := a.current()
	if err != nil {
		return err
	}

	medication, err := GetChoice(a.reader, "Medication", Medications, a.out)
	if err != nil {
		return err
	}
	dosage, err := GetChoice(a.reader, "Dosage", Dosages, a.out)
	if err != nil {
		return err
	}

	entry := records.NewEntry(medication, dosage)
	if err := a.store.AppendMedication(ctx, rec.Name, entry); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Medication %s (%s) logged for %s at %s.\n", medication, dosage, rec.Name, entry.Timestamp)
	return nil
}

// Show prints the detail view of the selected patient.
func (a *App) Show(ctx context.Context) error {
	rec, err := a.current()
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Manage Patient: %s\n\n", rec.Name)
	fmt.Fprintln(a.out, "Patient Details")
	fmt.Fprintf(a.out, "  Age: %d\n", rec.Age)
	fmt.Fprintf(a.out, "  Weight: %s kg\n", strconv.FormatFloat(rec.Weight, 'f', -1, 64))
	fmt.Fprintf(a.out, "  Gender: %s\n", rec.Gender)
	fmt.Fprintf(a.out, "  Height: %s cm\n", strconv.FormatFloat(rec.Height, 'f', -1, 64))
	fmt.Fprintf(a.out, "  Social Insurance Number: %s\n\n", rec.SocialInsuranceNumber)

	fmt.Fprintln(a.out, "Medication Logs")
	if len(rec.Medications) == 0 {
		fmt.Fprintln(a.out, "No medications logged yet.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tMedication\tDosage\tTimestamp")
	for i, e := range rec.Medications {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n", i+1, e.Medication, e.Dosage, e.Timestamp)
	}
	return tw.Flush()
}

// Export renders the selected patient's report and hands it to every sink.
func (a *App) Export(ctx context.Context, args []string) error {
	rec, err := a.current()
	if err != nil {
		return err
	}

	var f export.Format
	if len(args) > 0 {
		if f, err = export.ParseFormat(args[0]); err != nil {
			return err
		}
	} else {
		formats := make([]string, len(export.Formats))
		for i, x := range export.Formats {
			formats[i] = string(x)
		}
		choice, err := GetChoice(a.reader, "Export format", formats, a.out)
		if err != nil {
			return err
		}
		f = export.Format(choice)
	}

	data, err := export.Render(rec, f)
	if err != nil {
		return err
	}

	name := export.FileName(rec.Name, f)
	var errs []error
	for _, s := range a.sinks {
		loc, err := s.Deliver(ctx, name, data)
		if err != nil {
			a.log.Error(ctx, "export delivery failed", "patient", rec.Name, "format", string(f), "error", err)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(a.out, "Report available at: %s\n", loc)
	}
	return errors.Join(errs...)
}

// Remove deletes the selected patient after confirmation and returns to the
// patient list.
func (a *App) Remove(ctx context.Context) error {
	rec, err := a.current()
	if err != nil {
		return err
	}

	answer, err := getSimpleText(a.reader, fmt.Sprintf("Remove patient %s and all medication logs? (y/N)", rec.Name), a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}

	if err := a.store.RemovePatient(ctx, rec.Name); err != nil {
		return err
	}
	a.session.PatientRemoved(rec.Name)

	fmt.Fprintf(a.out, "Patient %s removed.\n", rec.Name)
	return nil
}

// Back returns to the patient list.
func (a *App) Back(ctx context.Context) error {
	a.session.Back()
	return nil
}
