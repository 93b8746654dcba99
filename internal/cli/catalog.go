package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/jrsteele09/go-lms-client/api"
	lmserrors "github.com/jrsteele09/go-lms-client/internal/errors"
	"github.com/jrsteele09/go-lms-client/transport"
	"github.com/spf13/cobra"
)

func (a *app) newCoursesCmd() *cobra.Command {
	var search string
	var limit int

	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List the public course catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.lms.API.ListCourses(transport.WithoutCredentials(cmd.Context()), api.CourseQuery{
				Page:   api.Page{Limit: limit},
				Search: search,
			})
			if err != nil {
				return fmt.Errorf("list courses: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORIES")
			for _, c := range list.Courses {
				categories := ""
				for i, cat := range c.Categories {
					if i > 0 {
						categories += ", "
					}
					categories += cat.Name
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, categories)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d courses\n", len(list.Courses), list.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Filter by name or description")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of courses")
	return cmd
}

func (a *app) newEnrollmentsCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "enrollments",
		Short: "List the signed-in user's enrollments",
		Long:  "List the enrollments of the user signed in on the selected track. Staff can pass --all to list every enrollment.",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.lms.Auth.State(a.track)
			if !st.IsAuthenticated {
				return fmt.Errorf("not signed in on %s: %w", a.track, lmserrors.ErrNoSession)
			}
			ctx := transport.WithTrack(cmd.Context(), a.track)

			var rows []enrollmentRow
			if all {
				list, err := a.lms.API.ListEnrollments(ctx, api.EnrollmentQuery{})
				if err != nil {
					return fmt.Errorf("list enrollments: %w", err)
				}
				for _, e := range list.Enrollments {
					rows = append(rows, enrollmentRow{e.StudentUsername, e.CourseName, e.CourseOfferingName, string(e.Status)})
				}
			} else {
				list, err := a.lms.API.EnrollmentsByUser(ctx, st.User.ID)
				if err != nil {
					return fmt.Errorf("list enrollments: %w", err)
				}
				for _, e := range list {
					rows = append(rows, enrollmentRow{e.StudentUsername, e.CourseName, e.CourseOfferingName, string(e.Status)})
				}
			}

			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No enrollments")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STUDENT\tCOURSE\tOFFERING\tSTATUS")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.student, r.course, r.offering, r.status)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "List every enrollment (admin and instructor only)")
	return cmd
}

type enrollmentRow struct {
	student  string
	course   string
	offering string
	status   string
}
