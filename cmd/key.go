package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/parcel-verify/internal/canonical"
)

var (
	keyState    string
	keyDistrict string
	keySurveyNo string
	keyFMBID    string
	keyExpect   string
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Print the canonical key for a parcel's identifying fields",
	Long: `Prints the SHA-256 canonical key of state|district|survey_no|fmb_id.

Values are used exactly as given: no trimming or case folding.
With --expect the command fails unless the derived key matches.

Example:
  parcel-verify key --state Karnataka --district "Bangalore Urban" --survey-no 123/4 --fmb-id FMB001`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		key := canonical.Key(keyState, keyDistrict, keySurveyNo, keyFMBID)
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), key); err != nil {
			return err
		}

		if keyExpect == "" {
			return nil
		}
		if !canonical.Valid(keyExpect) {
			return eris.Errorf("key: %q is not a canonical key", keyExpect)
		}
		if keyExpect != key {
			return eris.Errorf("key: mismatch, expected %s", keyExpect)
		}
		return nil
	},
}

func init() {
	keyCmd.Flags().StringVar(&keyState, "state", "", "state name")
	keyCmd.Flags().StringVar(&keyDistrict, "district", "", "district name")
	keyCmd.Flags().StringVar(&keySurveyNo, "survey-no", "", "administrative survey number")
	keyCmd.Flags().StringVar(&keyFMBID, "fmb-id", "", "survey (FMB) identifier")
	keyCmd.Flags().StringVar(&keyExpect, "expect", "", "fail unless the derived key equals this one")
	rootCmd.AddCommand(keyCmd)
}
