package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-lms-client/client"
	"github.com/jrsteele09/go-lms-client/internal/config"
	"github.com/jrsteele09/go-lms-client/internal/logging"
	"github.com/jrsteele09/go-lms-client/server"
	"github.com/jrsteele09/go-lms-client/token"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app is the state shared by every command of one invocation.
type app struct {
	flagTrack     string
	flagFake      bool
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string
	envFiles      []string

	cfg    config.Config
	logger zerolog.Logger
	track  token.Track
	lms    *client.Client
	in     *bufio.Reader
}

// NewRootCmd creates the root cobra command for the lms CLI. envFiles are the
// .env files loaded before reading configuration (".env" when empty).
func NewRootCmd(envFiles ...string) *cobra.Command {
	a := &app{envFiles: envFiles}

	root := &cobra.Command{
		Use:   "lms",
		Short: "Asto LMS client",
		Long:  "lms signs in to the Asto LMS on the public or dashboard track and calls the backend with the stored session.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.lms == nil {
				return nil
			}
			return a.lms.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			displayAppname(cmd.OutOrStdout(), a.cfg.GetAppName())
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.flagTrack, "track", string(token.Public), "Session track (public or dashboard)")
	flags.BoolVar(&a.flagFake, "fake", false, "Use the built-in fake backend instead of LMS_API_BASE_URL")
	flags.BoolVar(&a.flagDebug, "debug", false, "Enable debug logging")
	flags.StringVar(&a.flagLogLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to LMS_LOG_LEVEL")
	flags.StringVar(&a.flagLogFormat, "log-format", "console", "Log format (console, json)")

	root.AddCommand(
		a.newLoginCmd(),
		a.newRegisterCmd(),
		a.newLogoutCmd(),
		a.newVerifyCmd(),
		a.newRefreshCmd(),
		a.newStatusCmd(),
		a.newCoursesCmd(),
		a.newEnrollmentsCmd(),
		a.newPasswordCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	track, err := token.ParseTrack(a.flagTrack)
	if err != nil {
		return err
	}
	a.track = track
	a.in = bufio.NewReader(cmd.InOrStdin())
	a.cfg = config.New(a.envFiles...)

	level := a.cfg.GetLogLevel()
	if a.flagLogLevel != "" {
		level = a.flagLogLevel
	}
	if a.flagDebug {
		level = "debug"
	}
	a.logger = logging.NewWithWriter(level, a.flagLogFormat, cmd.ErrOrStderr())

	var opts []client.Option
	opts = append(opts, client.WithLogger(a.logger))
	if a.flagFake {
		backend, err := server.New(server.WithLogger(a.logger))
		if err != nil {
			return err
		}
		opts = append(opts, client.WithTransport(backend.Transport()))
	}

	a.lms, err = client.New(a.cfg, opts...)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

// prompt reads one line from the invocation's input when value is empty.
// All prompts share one reader so buffered input is not lost between them.
func (a *app) prompt(cmd *cobra.Command, label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	if a.in == nil {
		a.in = bufio.NewReader(cmd.InOrStdin())
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%s cannot be empty", strings.ToLower(label))
	}
	return line, nil
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, myFigure.String())
}
