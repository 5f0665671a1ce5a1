package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App holds what the commands share.
type App struct {
	Logger *zap.Logger
}

// NewRootCmd creates the top-level "timetable" command.
func NewRootCmd(app *App) *cobra.Command {
	if app.Logger == nil {
		app.Logger = zap.NewNop()
	}

	root := &cobra.Command{
		Use:           "timetable",
		Short:         "Offline weekly timetable placement",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newGenerateCmd(app))

	return root
}
