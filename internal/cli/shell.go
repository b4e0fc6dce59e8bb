package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jmylchreest/sortlaunch/internal/dialog"
	"github.com/jmylchreest/sortlaunch/internal/invoke"
	"github.com/jmylchreest/sortlaunch/internal/session"
	"github.com/jmylchreest/sortlaunch/internal/sortconfig"
)

const shellPrompt = "sortlaunch> "

const shellHelp = `Commands:
  set <field> <value>   change a field (see "show all" for names)
  source <path|url>     select the image to sort
  mask <path|url|none>  select or remove the mask
  pick [mask]           choose the source (or mask) with a file dialog
  show [all]            list the fields that apply (or every field)
  args                  print the sorter arguments
  run                   start the sorter in the background
  wait                  wait for the running sorter to finish
  cancel                stop the running sorter
  status                report whether the sorter is running
  help                  show this help
  quit                  wait for any run and exit
`

func newShellCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell [image]",
		Short: "Edit a configuration interactively and run the sorter",
		Long: `Start an interactive session. Fields are edited one at a time; values
outside their legal range are ignored and the previous value is kept. Runs
happen in the background so the configuration can be changed while the
sorter works. Only one run may be active at a time.

Type "help" in the shell for the list of commands.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)
			sh := &shell{
				session:    session.New(newController(cmd, d, logger), logger),
				picker:     d.picker,
				executable: executableName(cmd),
				logger:     logger,
				out:        cmd.OutOrStdout(),
			}
			if len(args) == 1 {
				if err := sh.session.SetSource(args[0]); err != nil {
					return err
				}
			}
			if err := applyModelFlags(cmd, sh.session); err != nil {
				return err
			}
			return sh.loop(cmd.Context(), cmd.InOrStdin())
		},
	}

	registerModelFlags(cmd.Flags())
	return cmd
}

type shell struct {
	session    *session.Session
	picker     dialog.Picker
	executable string
	logger     hclog.Logger

	mu  sync.Mutex // guards out; run completions write from another goroutine
	out io.Writer
}

func (sh *shell) printf(format string, args ...any) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	fmt.Fprintf(sh.out, format, args...)
}

func (sh *shell) loop(ctx context.Context, in io.Reader) error {
	interactive := isTerminal(in)
	stop := make(chan struct{})
	defer close(stop)
	lines, readErr := readLines(in, stop)

	defer sh.session.Wait()
	for {
		if interactive {
			sh.printf("%s", shellPrompt)
		}
		var line string
		select {
		case <-ctx.Done():
			sh.session.Cancel()
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return <-readErr
			}
			line = strings.TrimSpace(l)
		}

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		if name == "quit" || name == "exit" {
			return nil
		}
		if err := sh.exec(ctx, strings.ToLower(name), rest); err != nil {
			sh.printf("error: %v\n", err)
		}
	}
}

// readLines scans in on its own goroutine so a blocked read never holds up
// cancellation. The error, if any, is sent once lines is closed at end of
// input; the goroutine gives up early when stop is closed.
func readLines(in io.Reader, stop <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}

func (sh *shell) exec(ctx context.Context, name, rest string) error {
	s := sh.session
	switch name {
	case "set":
		fieldName, value, ok := strings.Cut(rest, " ")
		if !ok {
			return errors.New("usage: set <field> <value>")
		}
		field, err := sortconfig.ParseField(fieldName)
		if err != nil {
			return err
		}
		value = strings.TrimSpace(value)
		accepted, err := s.Set(field, value)
		if err != nil {
			return err
		}
		if !accepted {
			sh.printf("%s: %q ignored, keeping %s\n", field, value, s.Model().Get(field))
		}
		return nil

	case "source":
		if rest == "" {
			return errors.New("usage: source <path|url>")
		}
		path, err := localImage(ctx, sh.logger, rest)
		if err != nil {
			return err
		}
		return s.SetSource(path)

	case "mask":
		if rest == "" {
			return errors.New("usage: mask <path|url|none>")
		}
		path, err := localImage(ctx, sh.logger, rest)
		if err != nil {
			return err
		}
		_, err = s.Set(sortconfig.FieldMask, path)
		return err

	case "pick":
		return sh.pick(rest == "mask")

	case "show":
		sh.mu.Lock()
		writeFieldTable(sh.out, s.Model(), rest == "all")
		sh.mu.Unlock()
		return nil

	case "args":
		args, err := s.Arguments()
		if err != nil {
			return err
		}
		sh.printf("%s\n", formatArgs(sh.executable, args))
		return nil

	case "run":
		started := time.Now()
		err := s.Start(ctx, func(result *invoke.Result, err error) {
			sh.finished(result, err, time.Since(started))
		})
		if err != nil {
			return err
		}
		sh.printf("sorter started\n")
		return nil

	case "wait":
		s.Wait()
		return nil

	case "cancel":
		if !s.Running() {
			sh.printf("nothing running\n")
			return nil
		}
		s.Cancel()
		return nil

	case "status":
		state := "idle"
		if s.Running() {
			state = "running"
		}
		source := s.Source()
		if source == "" {
			source = "none"
		}
		sh.printf("sorter: %s\nsource: %s\n", state, source)
		return nil

	case "help", "?":
		sh.printf("%s", shellHelp)
		return nil

	default:
		return fmt.Errorf("unknown command %q (try \"help\")", name)
	}
}

func (sh *shell) pick(mask bool) error {
	title := "Select image to sort"
	if mask {
		title = "Select mask"
	}
	path, err := sh.picker.PickImage(title, "")
	if errors.Is(err, dialog.ErrCanceled) {
		return nil
	}
	if err != nil {
		return err
	}
	if mask {
		return sh.session.SetMask(path)
	}
	return sh.session.SetSource(path)
}

func (sh *shell) finished(result *invoke.Result, err error, elapsed time.Duration) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if result != nil {
		sh.out.Write(result.Stdout)
		sh.out.Write(result.Stderr)
		if len(result.Stderr) > 0 {
			err = withoutStderr(err)
		}
	}
	if err != nil {
		fmt.Fprintf(sh.out, "sorter failed: %v\n", err)
		return
	}
	fmt.Fprintf(sh.out, "sorter finished in %s\n", elapsed.Round(time.Millisecond))
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
