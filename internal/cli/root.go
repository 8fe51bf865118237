// Package cli wires bfc's cobra subcommands (compile, graph) to
// viper-bound configuration and the core internal/compiler package, the
// same shape the teacher's cmd package uses for its own scan/components
// subcommands.
package cli

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cfgFile is an optional explicit path to a config file; if empty, we
// look for ./bfc.config.{json,yaml,toml}.
var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "bfc",
	Short: "Split-rendering JSX compiler",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath(".")
			viper.SetConfigName("bfc.config")
		}

		viper.SetEnvPrefix("BFC")
		viper.AutomaticEnv()

		if err := viper.ReadInConfig(); err == nil {
			log.Debug("using config file", "path", viper.ConfigFileUsed())
		}
		return nil
	},
}

// Execute is called from cmd/bfc/main.go and runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./bfc.config.{json,yaml,toml})")
	rootCmd.PersistentFlags().String("root", ".", "workspace root")
	rootCmd.PersistentFlags().String("out", "dist", "output directory")
	rootCmd.PersistentFlags().String("adapter", "template", "server emission adapter")
	rootCmd.PersistentFlags().Bool("alias-ts", false, "resolve imports through tsconfig baseUrl/paths in addition to relative paths")

	_ = viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	_ = viper.BindPFlag("out", rootCmd.PersistentFlags().Lookup("out"))
	_ = viper.BindPFlag("adapter", rootCmd.PersistentFlags().Lookup("adapter"))
	_ = viper.BindPFlag("aliasTs", rootCmd.PersistentFlags().Lookup("alias-ts"))
}
