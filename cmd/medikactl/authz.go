package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/medika/medika/internal/authz"
)

var authzCmd = &cobra.Command{
	Use:   "authz",
	Short: "Inspect the authorization policy set",
}

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Print the role by resource by action matrix",
	Run: func(cmd *cobra.Command, _ []string) {
		printMatrix(cmd.OutOrStdout(), authz.New())
	},
}

var (
	checkRole     string
	checkAction   string
	checkResource string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate one class-level decision",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCheck(cmd.OutOrStdout(), authz.New(), checkRole, checkAction, checkResource)
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkRole, "role", "", "admin, doctor or receptionist")
	checkCmd.Flags().StringVar(&checkAction, "action", "", "policy action, e.g. view")
	checkCmd.Flags().StringVar(&checkResource, "resource", "", "resource type, e.g. invoice")
	_ = checkCmd.MarkFlagRequired("role")
	_ = checkCmd.MarkFlagRequired("action")
	_ = checkCmd.MarkFlagRequired("resource")

	authzCmd.AddCommand(matrixCmd, checkCmd)
	rootCmd.AddCommand(authzCmd)
}

func printMatrix(out io.Writer, r *authz.Resolver) {
	roles := authz.Roles()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := []string{"RESOURCE", "ACTION"}
	for _, role := range roles {
		header = append(header, strings.ToUpper(role.String()))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range r.Matrix() {
		cols := []string{string(row.Resource), string(row.Action)}
		for _, role := range roles {
			cols = append(cols, string(row.Cells[role]))
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	_ = tw.Flush()
}

// runCheck prints allow or deny with the reason. Instance rules are evaluated
// without an instance, so they report the class-level answer only.
func runCheck(out io.Writer, r *authz.Resolver, role, action, resource string) error {
	parsed, err := authz.ParseRole(role)
	if err != nil {
		return err
	}
	p := &authz.Principal{ID: 1, Role: parsed}
	if parsed == authz.RoleDoctor {
		p.Doctor = &authz.DoctorProfile{ID: 1}
	}
	d := r.Decide(p, authz.Action(action), authz.ResourceType(resource), nil)
	if d.Allowed {
		fmt.Fprintf(out, "allow: %s may %s %s\n", parsed, action, resource)
		return nil
	}
	fmt.Fprintf(out, "deny: %s may not %s %s (%s)\n", parsed, action, resource, d.Reason)
	return errors.New("denied")
}
