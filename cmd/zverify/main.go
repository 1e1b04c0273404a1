package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/zerfoo/zverify/internal/onnx"
	"github.com/zerfoo/zverify/pkg/checker"
	"github.com/zerfoo/zverify/pkg/classify"
	"github.com/zerfoo/zverify/pkg/importer"
	"github.com/zerfoo/zverify/pkg/inspector"
	"github.com/zerfoo/zverify/pkg/modelerr"
	"github.com/zerfoo/zverify/pkg/registry"
	"github.com/zerfoo/zverify/pkg/session"
	"github.com/zerfoo/zverify/pkg/verify"
	"k8s.io/klog/v2"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// errUsage reports bad command-line arguments; the usage text has already
// been written.
var errUsage = errors.New("usage error")

func main() {
	code := run(os.Args[1:], os.Stdout, os.Stderr)
	klog.Flush()
	os.Exit(code)
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitUsage
	}

	var err error
	switch args[0] {
	case "verify":
		err = handleVerify(args[1:], stdout, stderr)
	case "check":
		err = handleCheck(args[1:], stdout, stderr)
	case "print":
		err = handlePrint(args[1:], stdout, stderr)
	case "inspect":
		err = handleInspect(args[1:], stdout, stderr)
	case "ops":
		err = handleOps(args[1:], stdout, stderr)
	case "classify":
		err = handleClassify(args[1:], stdout, stderr)
	case "help", "-h", "-help", "--help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n", args[0])
		printUsage(stderr)
		return exitUsage
	}

	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, errUsage):
		return exitUsage
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitFailure
}

func newFlagSet(name, synopsis string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	klog.InitFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: zverify %s %s\n\nFlags:\n", name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// parseModelPath parses args and returns the single positional model path.
func parseModelPath(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return "", err
		}
		return "", errUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(fs.Output(), "Error: expected one model path, got %d arguments\n", fs.NArg())
		fs.Usage()
		return "", errUsage
	}
	return fs.Arg(0), nil
}

func handleVerify(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("verify", "[flags] <model.onnx>", stderr)
	runtime := fs.String("runtime", session.DefaultRuntime,
		fmt.Sprintf("Session runtime, one of: %s.", strings.Join(session.Runtimes(), ", ")))
	warmup := fs.Bool("warmup", false, "Run the session once on zero-filled inputs after compiling it.")
	summary := fs.Bool("summary", false, "Print model statistics after the graph.")
	progress := fs.Bool("progress", false, "Draw a progress bar on stderr while the model is read.")
	skipTypes := fs.Bool("skip-types", false, "Skip the type and shape consistency checks.")
	ortLib := fs.String("ort-lib", "",
		"Path to the onnxruntime shared library for -runtime=ort. Defaults to $ONNXRUNTIME_SHARED_LIBRARY_PATH.")

	path, err := parseModelPath(fs, args)
	if err != nil {
		return err
	}
	if *ortLib != "" {
		session.ORTLibraryPath = *ortLib
	}

	opts := verify.Options{
		Runtime:   *runtime,
		Warmup:    *warmup,
		Summary:   *summary,
		SkipTypes: *skipTypes,
	}
	if *progress {
		opts.Progress = stderr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	outcomes, err := verify.Run(ctx, stdout, path, opts)
	for _, o := range outcomes {
		klog.V(1).Infof("%-8s %v", o.Step, o.Elapsed)
	}
	return err
}

func loadModel(path string, progress bool, stderr io.Writer) (*onnx.ModelProto, error) {
	var opts []importer.Option
	if progress {
		opts = append(opts, importer.WithProgress(stderr))
	}
	return importer.Load(path, opts...)
}

func handleCheck(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("check", "[flags] <model.onnx>", stderr)
	skipTypes := fs.Bool("skip-types", false, "Skip the type and shape consistency checks.")
	progress := fs.Bool("progress", false, "Draw a progress bar on stderr while the model is read.")

	path, err := parseModelPath(fs, args)
	if err != nil {
		return err
	}
	model, err := loadModel(path, *progress, stderr)
	if err != nil {
		return err
	}
	opts := []checker.Option{checker.WithBaseDir(filepath.Dir(path))}
	if *skipTypes {
		opts = append(opts, checker.WithoutTypeCheck())
	}
	if err := checker.CheckModel(model, opts...); err != nil {
		return modelerr.New(modelerr.KindValidation, path, err)
	}
	_, err = fmt.Fprintln(stdout, "Model is valid.")
	return err
}

func handlePrint(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("print", "[flags] <model.onnx>", stderr)
	summary := fs.Bool("summary", false, "Print model statistics after the graph.")
	progress := fs.Bool("progress", false, "Draw a progress bar on stderr while the model is read.")

	path, err := parseModelPath(fs, args)
	if err != nil {
		return err
	}
	model, err := loadModel(path, *progress, stderr)
	if err != nil {
		return err
	}
	if err := inspector.PrintGraph(stdout, model.GetGraph()); err != nil {
		return err
	}
	if *summary {
		return inspector.Summary(stdout, model)
	}
	return nil
}

func handleInspect(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("inspect", "<model.onnx>", stderr)
	path, err := parseModelPath(fs, args)
	if err != nil {
		return err
	}
	return inspector.Inspect(stdout, path)
}

func handleOps(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("ops", "[flags]", stderr)
	domain := fs.String("domain", "", "Only list operators of this domain (ai.onnx for the default domain).")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(stderr, "Error: ops takes no arguments, got %q\n", fs.Args())
		fs.Usage()
		return errUsage
	}

	want := onnx.CanonicalDomain(*domain)
	for _, s := range registry.Ops() {
		name := s.Domain
		if name == "" {
			name = "ai.onnx"
		}
		if *domain != "" && onnx.CanonicalDomain(s.Domain) != want {
			continue
		}
		if _, err := fmt.Fprintf(stdout, "%-24s %-28s since %d\n", name, s.OpType, s.SinceVersion); err != nil {
			return err
		}
	}
	return nil
}

func handleClassify(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("classify", "-image <file> -labels <file> [flags] <model.onnx>", stderr)
	image := fs.String("image", "", "Image to classify (JPEG, PNG, GIF, TIFF or BMP).")
	labels := fs.String("labels", "", "Category labels, one per line in output order.")
	runs := fs.Int("runs", classify.DefaultRuns, "Number of timed inference runs.")
	top := fs.Int("top", classify.DefaultTop, "Number of best categories to list.")
	channels := fs.String("channels", string(classify.BGR), "Color plane order of the input tensor: bgr or rgb.")
	runtime := fs.String("runtime", session.DefaultRuntime,
		fmt.Sprintf("Session runtime, one of: %s.", strings.Join(session.Runtimes(), ", ")))
	ortLib := fs.String("ort-lib", "",
		"Path to the onnxruntime shared library for -runtime=ort. Defaults to $ONNXRUNTIME_SHARED_LIBRARY_PATH.")

	path, err := parseModelPath(fs, args)
	if err != nil {
		return err
	}
	if *image == "" || *labels == "" {
		fmt.Fprintln(fs.Output(), "Error: -image and -labels are required")
		fs.Usage()
		return errUsage
	}
	if *runs < 1 || *top < 1 {
		fmt.Fprintln(fs.Output(), "Error: -runs and -top must be positive")
		fs.Usage()
		return errUsage
	}
	order, err := classify.ParseChannelOrder(*channels)
	if err != nil {
		fmt.Fprintf(fs.Output(), "Error: %v\n", err)
		fs.Usage()
		return errUsage
	}
	if *ortLib != "" {
		session.ORTLibraryPath = *ortLib
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	_, err = classify.Run(ctx, stdout, path, *image, *labels, classify.Options{
		Runtime:  *runtime,
		Runs:     *runs,
		Top:      *top,
		Channels: order,
	})
	return err
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: zverify <command> [flags] <model.onnx>")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  verify [-runtime <name>] [-warmup] [-summary] [-progress] [-skip-types] [-ort-lib <path>] <model.onnx>")
	fmt.Fprintln(w, "  check [-skip-types] [-progress] <model.onnx>")
	fmt.Fprintln(w, "  print [-summary] [-progress] <model.onnx>")
	fmt.Fprintln(w, "  inspect <model.onnx>")
	fmt.Fprintln(w, "  ops [-domain <domain>]")
	fmt.Fprintln(w, "  classify -image <file> -labels <file> [-runs <n>] [-top <n>] [-channels bgr|rgb] [-runtime <name>] [-ort-lib <path>] <model.onnx>")
	fmt.Fprintln(w, "\nFlags come before the model path. Run 'zverify <command> -h' for details.")
}
