package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/carshowcase/showcase/internal/config"
)

var (
	cfgFile    string
	appVersion string // set in Execute, reported by serve and openapi
	vp         *viper.Viper
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	vp = config.NewViper()

	cmd := &cobra.Command{
		Use:   "showcase",
		Short: "Vehicle catalogue API with token authentication",
		Long: `Showcase serves the vehicle catalogue API: account registration and login with
bearer tokens, per-owner vehicle records, file uploads and public catalogue statistics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.ReadFile(vp, cfgFile)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./showcase.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the default SQLite database (default: ~/.showcase)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}
