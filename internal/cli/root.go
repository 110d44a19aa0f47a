package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// Execute builds the command tree and runs it with args (os.Args[1:] when
// nil). Logs go to w at info level, or debug level with --verbose. The
// logger is attached to the command context for loggerFromContext.
func Execute(ctx context.Context, w io.Writer, args []string) error {
	var verbose bool

	c := New(w, LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if verbose {
			c.SetLogLevel(LogDebug)
		}
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	}
	if args != nil {
		root.SetArgs(args)
	}
	return root.ExecuteContext(ctx)
}
