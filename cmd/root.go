package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var profilesFile string

var rootCmd = &cobra.Command{
	Use:   "idmaker",
	Short: "Render ID cards and print sheets from card designs",
	Long: `idmaker renders ID cards from a card design and per-student records,
places them two per A4 sheet using printer calibration profiles and exports
print-ready PDFs for dual-slot PVC card trays.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&profilesFile, "profiles", "", "Calibration profile file (overrides IDMAKER_PROFILES_FILE)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
