package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/sortlaunch/internal/dialog"
	"github.com/jmylchreest/sortlaunch/internal/invoke"
	"github.com/jmylchreest/sortlaunch/internal/sortconfig"
)

type fakePicker struct {
	paths []string
	err   error
}

func (p *fakePicker) PickImage(title, startDir string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	if len(p.paths) == 0 {
		return "", dialog.ErrCanceled
	}
	path := p.paths[0]
	p.paths = p.paths[1:]
	return path, nil
}

type cmdResult struct {
	stdout string
	stderr string
	err    error
}

// execute runs the command tree with args and returns what it printed.
func execute(t *testing.T, d *deps, stdin io.Reader, args ...string) cmdResult {
	t.Helper()
	return executeContext(t, context.Background(), d, stdin, args...)
}

func executeContext(t *testing.T, ctx context.Context, d *deps, stdin io.Reader, args ...string) cmdResult {
	t.Helper()
	t.Setenv(invoke.EnvExecutable, "")
	t.Setenv(invoke.EnvTimeout, "")

	if d.picker == nil {
		d.picker = &fakePicker{}
	}
	root := newRootCmd(d)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	return cmdResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode image: %v", err)
	}
	return path
}

func TestArgsCommandDefaults(t *testing.T) {
	src := writePNG(t, t.TempDir(), "a.png", 4, 4)

	res := execute(t, &deps{}, nil, "args", "--lines", src)
	if res.err != nil {
		t.Fatalf("args failed: %v", res.err)
	}

	got := strings.Split(strings.TrimSpace(res.stdout), "\n")
	want := []string{src, "-p", "lines", "-s", "lightness", "-i", "lightness",
		"-l", "0.25", "-u", "0.8", "-w", "400", "-c", "0", "0", "-a", "0"}
	if !slices.Equal(got, want) {
		t.Errorf("args =\n%q\nwant\n%q", got, want)
	}
}

func TestArgsCommandCommandLine(t *testing.T) {
	src := writePNG(t, t.TempDir(), "a.png", 4, 4)

	res := execute(t, &deps{}, nil, "args", "--executable", "/opt/sorter", "-r", src)
	if res.err != nil {
		t.Fatalf("args failed: %v", res.err)
	}
	if !strings.HasPrefix(res.stdout, "/opt/sorter ") {
		t.Errorf("expected executable prefix, got %q", res.stdout)
	}
	if !strings.HasSuffix(strings.TrimSpace(res.stdout), "-a 0 -r") {
		t.Errorf("expected reverse flag last, got %q", res.stdout)
	}
}

func TestArgsCommandRejectedValuesKeepDefaults(t *testing.T) {
	src := writePNG(t, t.TempDir(), "a.png", 4, 4)

	res := execute(t, &deps{}, nil, "args", "--lines",
		"--angle", "400", "-l", "1.5", "-w", "1", "--center-x", "abc", src)
	if res.err != nil {
		t.Fatalf("args failed: %v", res.err)
	}

	got := strings.Split(strings.TrimSpace(res.stdout), "\n")
	for flag, want := range map[string]string{"-a": "0", "-l": "0.25", "-w": "400", "-c": "0"} {
		i := slices.Index(got, flag)
		if i < 0 || got[i+1] != want {
			t.Errorf("%s: expected %s in %q", flag, want, got)
		}
	}
	if !strings.Contains(res.stderr, "keeping previous value") {
		t.Errorf("expected rejected input to be logged, stderr: %s", res.stderr)
	}
}

func TestArgsCommandMissingImage(t *testing.T) {
	res := execute(t, &deps{}, nil, "args", filepath.Join(t.TempDir(), "missing.png"))
	if res.err == nil || !strings.Contains(res.err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", res.err)
	}
}

func TestArgsCommandInvalidEnum(t *testing.T) {
	src := writePNG(t, t.TempDir(), "a.png", 4, 4)

	res := execute(t, &deps{}, nil, "args", "-p", "spiral", src)
	if res.err == nil || !strings.Contains(res.err.Error(), "lines, circles") {
		t.Errorf("expected enum error listing choices, got %v", res.err)
	}
}

func TestRunCommandPassesArguments(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, "a.png", 8, 8)
	mask := writePNG(t, dir, "mask.png", 8, 8)
	runner := invoke.NewSuccessMockProcessRunner([]byte("sorted\n"))

	res := execute(t, &deps{runner: runner}, nil, "run",
		"-p", "circles", "--use-angle=false", "--center-x", "120", "--center-y", "80",
		"-s", "hue", "-m", mask, src)
	if res.err != nil {
		t.Fatalf("run failed: %v", res.err)
	}

	name, args := runner.LastCall()
	if name != invoke.DefaultExecutable {
		t.Errorf("expected %s, got %s", invoke.DefaultExecutable, name)
	}
	want := []string{src, "-p", "circles", "-s", "hue", "-i", "lightness",
		"-l", "0.25", "-u", "0.8", "-w", "400", "-c", "120", "80", "-m", mask}
	if !slices.Equal(args, want) {
		t.Errorf("args =\n%q\nwant\n%q", args, want)
	}
	if res.stdout != "sorted\n" {
		t.Errorf("expected sorter output relayed, got %q", res.stdout)
	}
}

func TestRunCommandNoSource(t *testing.T) {
	runner := invoke.NewMockProcessRunner()

	res := execute(t, &deps{runner: runner}, nil, "run")
	if !errors.Is(res.err, invoke.ErrNoSource) {
		t.Errorf("expected ErrNoSource, got %v", res.err)
	}
	if runner.CallCount() != 0 {
		t.Error("sorter must not run without a source")
	}
}

func TestRunCommandPick(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, "a.png", 4, 4)
	mask := writePNG(t, dir, "m.png", 4, 4)
	runner := invoke.NewMockProcessRunner()

	res := execute(t, &deps{runner: runner, picker: &fakePicker{paths: []string{src, mask}}}, nil,
		"run", "--pick", "--pick-mask")
	if res.err != nil {
		t.Fatalf("run failed: %v", res.err)
	}

	_, args := runner.LastCall()
	if args[0] != src || args[len(args)-1] != mask {
		t.Errorf("expected picked source and mask, got %q", args)
	}
}

func TestRunCommandPickCancelled(t *testing.T) {
	res := execute(t, &deps{runner: invoke.NewMockProcessRunner()}, nil, "run", "--pick")
	if !errors.Is(res.err, dialog.ErrCanceled) {
		t.Errorf("expected ErrCanceled, got %v", res.err)
	}
}

func TestRunCommandDryRun(t *testing.T) {
	src := writePNG(t, t.TempDir(), "a.png", 4, 4)
	runner := invoke.NewMockProcessRunner()

	res := execute(t, &deps{runner: runner}, nil, "run", "--dry-run", src)
	if res.err != nil {
		t.Fatalf("dry run failed: %v", res.err)
	}
	if runner.CallCount() != 0 {
		t.Error("dry run must not start the sorter")
	}
	if !strings.HasPrefix(res.stdout, invoke.DefaultExecutable+" ") {
		t.Errorf("expected command line, got %q", res.stdout)
	}
}

func TestRunCommandExternalFailure(t *testing.T) {
	src := writePNG(t, t.TempDir(), "a.png", 4, 4)

	res := execute(t, &deps{runner: invoke.NewExitMockProcessRunner(2, "bad mask")}, nil, "run", src)
	var failure *invoke.ExternalFailureError
	if !errors.As(res.err, &failure) {
		t.Fatalf("expected ExternalFailureError, got %v", res.err)
	}
	if ExitCode(res.err) != 2 {
		t.Errorf("expected exit code 2, got %d", ExitCode(res.err))
	}
	if n := strings.Count(res.stderr, "bad mask"); n != 1 {
		t.Errorf("expected sorter stderr relayed once, got %d times in %q", n, res.stderr)
	}
	if !strings.Contains(res.stderr, "sorter exited with code 2") {
		t.Errorf("expected exit status reported, got %q", res.stderr)
	}
}

func TestRunCommandExecutableNotFound(t *testing.T) {
	src := writePNG(t, t.TempDir(), "a.png", 4, 4)

	res := execute(t, &deps{runner: invoke.NewMissingMockProcessRunner()}, nil, "run", src)
	if !errors.Is(res.err, invoke.ErrExecutableNotFound) {
		t.Fatalf("expected ErrExecutableNotFound, got %v", res.err)
	}
	if !strings.Contains(res.err.Error(), invoke.EnvExecutable) {
		t.Errorf("expected a hint naming %s, got %v", invoke.EnvExecutable, res.err)
	}
}

func TestRunCommandTimeout(t *testing.T) {
	src := writePNG(t, t.TempDir(), "a.png", 4, 4)

	res := execute(t, &deps{runner: invoke.NewBlockingMockProcessRunner()}, nil,
		"run", "--timeout", "20ms", src)
	if !errors.Is(res.err, invoke.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", res.err)
	}
}

func TestFieldsCommand(t *testing.T) {
	res := execute(t, &deps{}, nil, "fields")
	if res.err != nil {
		t.Fatalf("fields failed: %v", res.err)
	}
	for _, want := range []string{"pattern", "Lines", "lower-threshold", "0.25", "mask", "none"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("expected %q in:\n%s", want, res.stdout)
		}
	}
	for _, hidden := range []string{"center-x", "average-width", "use-angle"} {
		if strings.Contains(res.stdout, hidden) {
			t.Errorf("expected %q hidden for the default configuration:\n%s", hidden, res.stdout)
		}
	}
}

func TestFieldsCommandFollowsConfiguration(t *testing.T) {
	res := execute(t, &deps{}, nil, "fields", "-p", "circles", "-i", "random")
	if res.err != nil {
		t.Fatalf("fields failed: %v", res.err)
	}
	for _, want := range []string{"center-x", "center-y", "use-angle", "average-width"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("expected %q in:\n%s", want, res.stdout)
		}
	}
	if strings.Contains(res.stdout, "lower-threshold") {
		t.Errorf("thresholds only apply to the lightness interval:\n%s", res.stdout)
	}
}

func TestFieldsCommandJSON(t *testing.T) {
	res := execute(t, &deps{}, nil, "fields", "--json", "-p", "circles", "--center-x", "40", "--angle", "400")
	if res.err != nil {
		t.Fatalf("fields failed: %v", res.err)
	}

	var got sortconfig.Values
	if err := json.Unmarshal([]byte(res.stdout), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, res.stdout)
	}
	want := sortconfig.New().Values()
	want.Pattern = sortconfig.PatternCircles
	want.CenterX = 40
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestFieldsCommandAll(t *testing.T) {
	res := execute(t, &deps{}, nil, "fields", "--all")
	if res.err != nil {
		t.Fatalf("fields failed: %v", res.err)
	}
	for _, line := range strings.Split(res.stdout, "\n") {
		if strings.HasPrefix(line, "center-x ") && !strings.Contains(line, " no ") {
			t.Errorf("expected center-x marked not shown: %q", line)
		}
	}
	if strings.Count(res.stdout, "\n") != 14 {
		t.Errorf("expected header, rule and 12 fields, got:\n%s", res.stdout)
	}
}

func TestShellEditsAndPrintsArguments(t *testing.T) {
	src := writePNG(t, t.TempDir(), "a.png", 4, 4)
	script := strings.Join([]string{
		"# comment",
		"set pattern circles",
		"set use_angle off",
		"set angle 999",
		"set center-x 12",
		"source " + src,
		"args",
		"bogus",
		"quit",
		"args",
	}, "\n")

	res := execute(t, &deps{}, strings.NewReader(script), "shell")
	if res.err != nil {
		t.Fatalf("shell failed: %v", res.err)
	}

	if !strings.Contains(res.stdout, `angle: "999" ignored, keeping 0`) {
		t.Errorf("expected rejection notice, got:\n%s", res.stdout)
	}
	wantArgs := fmt.Sprintf("pixel-sorter %s -p circles -s lightness -i lightness -l 0.25 -u 0.8 -w 400 -c 12 0\n", src)
	if strings.Count(res.stdout, wantArgs) != 1 {
		t.Errorf("expected one %q in:\n%s", wantArgs, res.stdout)
	}
	if !strings.Contains(res.stdout, `unknown command "bogus"`) {
		t.Errorf("expected unknown command error, got:\n%s", res.stdout)
	}
}

func TestShellArgsWithoutSource(t *testing.T) {
	res := execute(t, &deps{}, strings.NewReader("args\n"), "shell")
	if res.err != nil {
		t.Fatalf("shell failed: %v", res.err)
	}
	if !strings.Contains(res.stdout, "error: "+invoke.ErrNoSource.Error()) {
		t.Errorf("expected no source error, got:\n%s", res.stdout)
	}
}

func TestShellRunInBackground(t *testing.T) {
	src := writePNG(t, t.TempDir(), "a.png", 4, 4)
	runner := invoke.NewSuccessMockProcessRunner([]byte("done\n"))

	res := execute(t, &deps{runner: runner}, strings.NewReader("run\nwait\nstatus\n"), "shell", src)
	if res.err != nil {
		t.Fatalf("shell failed: %v", res.err)
	}
	for _, want := range []string{"sorter started", "done\n", "sorter finished", "sorter: idle"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("expected %q in:\n%s", want, res.stdout)
		}
	}
	if runner.CallCount() != 1 {
		t.Errorf("expected one run, got %d", runner.CallCount())
	}
}

func TestShellRejectsSecondRunAndCancels(t *testing.T) {
	src := writePNG(t, t.TempDir(), "a.png", 4, 4)
	runner := invoke.NewBlockingMockProcessRunner()

	in, feed := io.Pipe()
	done := make(chan cmdResult, 1)
	go func() {
		done <- execute(t, &deps{runner: runner}, in, "shell", src)
	}()

	fmt.Fprintln(feed, "run")
	select {
	case <-runner.Started:
	case <-time.After(5 * time.Second):
		t.Fatal("sorter never started")
	}
	fmt.Fprintln(feed, "run")
	fmt.Fprintln(feed, "cancel")
	fmt.Fprintln(feed, "wait")
	feed.Close()

	var res cmdResult
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shell did not exit")
	}
	if res.err != nil {
		t.Fatalf("shell failed: %v", res.err)
	}
	if !strings.Contains(res.stdout, "error: "+invoke.ErrInvocationInProgress.Error()) {
		t.Errorf("expected second run rejected, got:\n%s", res.stdout)
	}
	if !strings.Contains(res.stdout, "sorter failed: "+invoke.ErrCancelled.Error()) {
		t.Errorf("expected cancelled run, got:\n%s", res.stdout)
	}
	if runner.CallCount() != 1 {
		t.Errorf("expected one run, got %d", runner.CallCount())
	}
}

func TestShellCancelRightAfterRun(t *testing.T) {
	src := writePNG(t, t.TempDir(), "a.png", 4, 4)
	runner := invoke.NewBlockingMockProcessRunner()

	done := make(chan cmdResult, 1)
	go func() {
		done <- execute(t, &deps{runner: runner}, strings.NewReader("run\ncancel\nwait\nstatus\n"), "shell", src)
	}()

	var res cmdResult
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cancel issued right after run was lost")
	}
	if res.err != nil {
		t.Fatalf("shell failed: %v", res.err)
	}
	for _, want := range []string{"sorter failed: " + invoke.ErrCancelled.Error(), "sorter: idle"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("expected %q in:\n%s", want, res.stdout)
		}
	}
}

func TestShellExternalFailureStderrOnce(t *testing.T) {
	src := writePNG(t, t.TempDir(), "a.png", 4, 4)
	runner := invoke.NewExitMockProcessRunner(3, "bad mask\n")

	res := execute(t, &deps{runner: runner}, strings.NewReader("run\nwait\n"), "shell", src)
	if res.err != nil {
		t.Fatalf("shell failed: %v", res.err)
	}
	if n := strings.Count(res.stdout, "bad mask"); n != 1 {
		t.Errorf("expected sorter stderr once, got %d times in:\n%s", n, res.stdout)
	}
	if !strings.Contains(res.stdout, "sorter failed: sorter exited with code 3\n") {
		t.Errorf("expected exit status reported, got:\n%s", res.stdout)
	}
}

func TestShellStopsOnInterruptAtPrompt(t *testing.T) {
	src := writePNG(t, t.TempDir(), "a.png", 4, 4)

	in, feed := io.Pipe()
	t.Cleanup(func() { feed.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan cmdResult, 1)
	go func() {
		done <- executeContext(t, ctx, &deps{runner: invoke.NewBlockingMockProcessRunner()}, in, "shell", src)
	}()

	fmt.Fprintln(feed, "status")
	cancel()

	select {
	case res := <-done:
		if !errors.Is(res.err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", res.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("shell kept waiting for input after the context was cancelled")
	}
}

func TestShellPick(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, "a.png", 4, 4)
	mask := writePNG(t, dir, "m.png", 4, 4)

	script := "pick\npick mask\nstatus\nargs\nmask none\nargs\n"
	res := execute(t, &deps{picker: &fakePicker{paths: []string{src, mask}}}, strings.NewReader(script), "shell")
	if res.err != nil {
		t.Fatalf("shell failed: %v", res.err)
	}
	if !strings.Contains(res.stdout, "source: "+src) {
		t.Errorf("expected picked source, got:\n%s", res.stdout)
	}
	if strings.Count(res.stdout, "-m "+mask) != 1 {
		t.Errorf("expected mask in the first argument list only, got:\n%s", res.stdout)
	}
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "frame1.png", 4, 4)
	writePNG(t, dir, "frame2.png", 4, 4)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	runner := invoke.NewMockProcessRunner()

	res := execute(t, &deps{runner: runner}, nil, "batch", "-j", "2", "-p", "circles", dir)
	if res.err != nil {
		t.Fatalf("batch failed: %v", res.err)
	}
	if runner.CallCount() != 2 {
		t.Errorf("expected 2 runs, got %d", runner.CallCount())
	}
	if strings.Count(res.stdout, " ok\n") != 2 {
		t.Errorf("expected two successes in:\n%s", res.stdout)
	}
}

func TestBatchCommandReportsFailures(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 4, 4)
	b := writePNG(t, dir, "b.png", 4, 4)

	res := execute(t, &deps{runner: invoke.NewExitMockProcessRunner(1, "boom")}, nil, "batch", a, b)
	if res.err == nil || !strings.Contains(res.err.Error(), "2 of 2 images failed") {
		t.Errorf("expected failure summary, got %v", res.err)
	}
	if strings.Count(res.stdout, "boom") != 2 {
		t.Errorf("expected each failure reported, got:\n%s", res.stdout)
	}
}

func TestPreviewCommand(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, "wide.png", 64, 32)
	out := filepath.Join(dir, "thumb.png")

	res := execute(t, &deps{}, nil, "preview", "--width", "16", "--height", "16", "-o", out, src)
	if res.err != nil {
		t.Fatalf("preview failed: %v", res.err)
	}
	if !strings.Contains(res.stdout, "(16x8)") {
		t.Errorf("expected 16x8 thumbnail, got %q", res.stdout)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("expected preview written: %v", err)
	}
}

func TestPreviewPath(t *testing.T) {
	if got := previewPath("/img/a.jpg"); got != "/img/a-preview.png" {
		t.Errorf("previewPath = %q", got)
	}
}

func TestStatusCommandNoneRunning(t *testing.T) {
	res := execute(t, &deps{}, nil, "status", "--executable", "sortlaunch-no-such-sorter")
	if res.err != nil {
		t.Fatalf("status failed: %v", res.err)
	}
	if !strings.Contains(res.stdout, "no sortlaunch-no-such-sorter processes running") {
		t.Errorf("unexpected output %q", res.stdout)
	}
}

func TestVersionCommand(t *testing.T) {
	res := execute(t, &deps{}, nil, "version")
	if res.err != nil {
		t.Fatalf("version failed: %v", res.err)
	}
	if !strings.HasPrefix(res.stdout, "sortlaunch version ") {
		t.Errorf("unexpected output %q", res.stdout)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("boom"), 1},
		{&invoke.ExternalFailureError{ExitCode: 4}, 4},
		{fmt.Errorf("wrapped: %w", &invoke.ExternalFailureError{ExitCode: 7}), 7},
		{&invoke.ExternalFailureError{ExitCode: -1}, 1},
	}

	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestLocalImage(t *testing.T) {
	got, err := localImage(context.Background(), nil, "/img/a.jpg")
	if err != nil || got != "/img/a.jpg" {
		t.Errorf("local path should pass through, got %q, %v", got, err)
	}

	if _, err := localImage(context.Background(), hclog.NewNullLogger(), "http://example.com/a.jpg"); err == nil ||
		!strings.Contains(err.Error(), "only HTTPS") {
		t.Errorf("expected plain HTTP to be refused, got %v", err)
	}
}
