package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/fencrypt/internal/batch"
	"github.com/dmitrijs2005/fencrypt/internal/config"
	"github.com/dmitrijs2005/fencrypt/internal/logging"
	"github.com/spf13/pflag"
)

// errReported marks an error whose details were already printed.
var errReported = errors.New("already reported")

type App struct {
	config   *config.Config
	logger   logging.Logger
	reporter *Reporter
	reader   *bufio.Reader
	stdinFd  int
	out      io.Writer
	errOut   io.Writer
}

// NewApp builds an App reading passphrases from in and writing results to
// out and diagnostic logs to errOut. Until a command has loaded the
// configuration, defaults apply.
func NewApp(in io.Reader, out, errOut io.Writer) *App {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	fd := -1
	if f, ok := in.(*os.File); ok {
		fd = int(f.Fd())
	}

	return &App{
		config:   cfg,
		logger:   logging.NewNopLogger(),
		reporter: NewReporter(out, false),
		reader:   newLineReader(in),
		stdinFd:  fd,
		out:      out,
		errOut:   errOut,
	}
}

// configure loads the configuration for the command being run and sets up
// logging and reporting from it.
func (a *App) configure(args []string, flags *pflag.FlagSet) error {
	cfg, err := config.LoadConfig(args, flags)
	if err != nil {
		return err
	}
	a.config = cfg

	level := logging.ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = slog.LevelDebug
	}
	a.logger = logging.NewTextLogger(a.errOut, level)
	a.reporter = NewReporter(a.out, cfg.Debug)
	return nil
}

func (a *App) runner() *batch.Runner {
	return batch.NewRunner(
		batch.WithLogger(a.logger),
		batch.WithTempRoot(a.config.TempDir),
		batch.WithChunkSize(a.config.ChunkSize),
	)
}

// Run executes the command line args and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	cmd := a.rootCmd(args)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			a.reporter.Failure(err)
		}
		return 1
	}
	return 0
}
