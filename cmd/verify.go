package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/parcel-verify/internal/ingest"
	"github.com/sells-group/parcel-verify/internal/parcel"
	"github.com/sells-group/parcel-verify/internal/submission"
)

// Output formats for verify.
const (
	verifyFormatTable = "table"
	verifyFormatJSON  = "json"
)

var (
	verifyAdmin  string
	verifySurvey string
	verifyFormat string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a parcel and print its score, findings and registry draft",
	Long: `Validates both documents, reconciles them, and prints the verification
result. An accepted parcel also prints the registry draft (json format).

Exits non-zero when a document is malformed or the parcel is rejected.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if verifyFormat != verifyFormatTable && verifyFormat != verifyFormatJSON {
			return eris.Errorf("verify: unknown format %q", verifyFormat)
		}
		if err := cfg.Validate("verify"); err != nil {
			return err
		}

		adminDoc, err := ingest.Administrative(verifyAdmin)
		if err != nil {
			return err
		}
		surveyDoc, err := ingest.Survey(verifySurvey)
		if err != nil {
			return err
		}

		draft, err := submission.ProcessDocuments(adminDoc, surveyDoc, cfg.Verification.ToParcel())
		var rejected *submission.RejectedError
		switch {
		case err == nil:
			return printVerification(cmd.OutOrStdout(), verifyFormat, draft.Verification, draft)
		case errors.As(err, &rejected):
			if pErr := printVerification(cmd.OutOrStdout(), verifyFormat, rejected.Result, nil); pErr != nil {
				return pErr
			}
			return err
		default:
			return err
		}
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyAdmin, "admin", "", "administrative record file (.json, .yaml)")
	verifyCmd.Flags().StringVar(&verifySurvey, "survey", "", "survey record file (.json, .yaml, .shp, .zip)")
	verifyCmd.Flags().StringVar(&verifyFormat, "format", verifyFormatTable, "output format: table or json")
	_ = verifyCmd.MarkFlagRequired("admin")
	_ = verifyCmd.MarkFlagRequired("survey")
	rootCmd.AddCommand(verifyCmd)
}

func printVerification(out io.Writer, format string, res parcel.VerificationResult, draft *submission.Draft) error {
	switch format {
	case verifyFormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Result parcel.VerificationResult `json:"result"`
			Draft  *submission.Draft         `json:"draft,omitempty"`
		}{res, draft})
	case verifyFormatTable:
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		verdict := "rejected"
		if res.IsValid {
			verdict = "accepted"
		}
		_, _ = fmt.Fprintf(w, "Verdict:\t%s\n", verdict)
		_, _ = fmt.Fprintf(w, "Score:\t%d\n", res.Score)
		_, _ = fmt.Fprintf(w, "Canonical key:\t%s\n", res.CanonicalKey)
		if draft != nil {
			_, _ = fmt.Fprintf(w, "Status:\t%s\n", draft.Status)
		}
		for _, e := range res.Errors {
			_, _ = fmt.Fprintf(w, "Error:\t%s\n", e)
		}
		for _, warn := range res.Warnings {
			_, _ = fmt.Fprintf(w, "Warning:\t%s\n", warn)
		}
		return w.Flush()
	default:
		return eris.Errorf("verify: unknown format %q", format)
	}
}
