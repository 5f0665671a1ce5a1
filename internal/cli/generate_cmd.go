package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/scheduler"
	"github.com/noah-isme/sma-timetable/internal/service"
	"github.com/noah-isme/sma-timetable/pkg/export"
)

func newGenerateCmd(app *App) *cobra.Command {
	var (
		input  string
		output string
		format string
		days   []string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Place a snapshot file's lesson requirements without touching a database",
		RunE: func(cmd *cobra.Command, args []string) error {
			activeDays, err := parseDays(days)
			if err != nil {
				return err
			}

			file, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("opening snapshot: %w", err)
			}
			defer file.Close()

			snapshot, err := DecodeSnapshot(file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			result, err := scheduler.New(app.Logger).Generate(ctx, scheduler.Input{
				Snapshot: snapshot,
				Config:   scheduler.Config{ActiveDays: activeDays},
			})
			if err != nil {
				return err
			}

			if err := writeResult(cmd, output, format, result); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "placed %d periods, %d conflicts\n", result.TotalPlaced, result.TotalConflicts)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Snapshot JSON file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result here instead of stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or csv")
	cmd.Flags().StringSliceVar(&days, "days", nil, "Active days, e.g. MONDAY,TUESDAY (default Monday to Friday)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func parseDays(raw []string) ([]models.Day, error) {
	days := make([]models.Day, 0, len(raw))
	for _, name := range raw {
		day, ok := models.ParseDay(name)
		if !ok {
			return nil, fmt.Errorf("unknown day %q", name)
		}
		days = append(days, day)
	}
	return scheduler.ActiveDays(days), nil
}

func writeResult(cmd *cobra.Command, path, format string, result *models.TimetableResult) error {
	var renderer export.Renderer
	if format != "json" {
		r, err := export.ForFormat(format)
		if err != nil {
			return err
		}
		renderer = r
	}

	var w io.Writer = cmd.OutOrStdout()
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer file.Close()
		w = file
	}

	if renderer != nil {
		body, err := renderer.Render(service.TimetableDataset(result.Placements))
		if err != nil {
			return err
		}
		_, err = w.Write(body)
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
