package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/parcel-verify/internal/ingest"
	"github.com/sells-group/parcel-verify/internal/validate"
)

var (
	validateAdmin  string
	validateSurvey string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run structural validation on an administrative and a survey document",
	RunE: func(cmd *cobra.Command, _ []string) error {
		adminDoc, err := ingest.Administrative(validateAdmin)
		if err != nil {
			return err
		}
		surveyDoc, err := ingest.Survey(validateSurvey)
		if err != nil {
			return err
		}

		_, adminRes := validate.AdministrativeJSON(adminDoc)
		_, surveyRes := validate.SurveyJSON(surveyDoc)

		if err := printValidation(cmd.OutOrStdout(), adminRes, surveyRes); err != nil {
			return err
		}
		if !adminRes.Valid || !surveyRes.Valid {
			return eris.New("validate: documents failed structural validation")
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateAdmin, "admin", "", "administrative record file (.json, .yaml)")
	validateCmd.Flags().StringVar(&validateSurvey, "survey", "", "survey record file (.json, .yaml, .shp, .zip)")
	_ = validateCmd.MarkFlagRequired("admin")
	_ = validateCmd.MarkFlagRequired("survey")
	rootCmd.AddCommand(validateCmd)
}

func printValidation(out io.Writer, admin, survey validate.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, row := range []struct {
		source string
		res    validate.Result
	}{
		{validate.SourceAdministrative, admin},
		{validate.SourceSurvey, survey},
	} {
		status := "ok"
		if !row.res.Valid {
			status = "invalid"
		}
		_, _ = fmt.Fprintf(w, "%s:\t%s\n", row.source, status)
		for _, e := range row.res.Errors {
			_, _ = fmt.Fprintf(w, "  -\t%s\n", e)
		}
	}
	return w.Flush()
}
