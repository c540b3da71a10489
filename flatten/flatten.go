package flatten

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	DefaultContract  = "contracts/MemoGC.sol"
	OutputFile       = "MemoGC_flat.sol"
	DefaultMaxOutput = 50 * 1024 * 1024

	// CommandEnv overrides DefaultCommand, e.g. "forge flatten".
	CommandEnv = "MEMO_GC_FLATTEN_CMD"
)

var (
	DefaultCommand = []string{"npx", "hardhat", "flatten"}

	ErrMaxOutputExceeded = errors.New("flatten output exceeds buffer limit")
	errEmptyCommand      = errors.New("empty flatten command")
)

// Flattener runs an external flatten command and stores its stdout as
// OutputFile in Root.
type Flattener struct {
	Command   []string
	Root      string
	Env       []string
	MaxOutput int

	log *logrus.Entry
}

func New(log *logrus.Entry, root string) *Flattener {
	return &Flattener{
		Command:   CommandFromEnv(),
		Root:      root,
		MaxOutput: DefaultMaxOutput,
		log:       log,
	}
}

// CommandFromEnv splits MEMO_GC_FLATTEN_CMD on whitespace, falling back to
// DefaultCommand.
func CommandFromEnv() []string {
	if fields := strings.Fields(os.Getenv(CommandEnv)); len(fields) > 0 {
		return fields
	}
	return append([]string(nil), DefaultCommand...)
}

// Run flattens contract (DefaultContract when empty) and returns the absolute
// path of the written file. Nothing is written when the command fails.
func (f *Flattener) Run(ctx context.Context, contract string) (string, error) {
	if len(f.Command) == 0 {
		return "", errEmptyCommand
	}
	if contract == "" {
		contract = DefaultContract
	}

	limit := f.MaxOutput
	if limit <= 0 {
		limit = DefaultMaxOutput
	}

	args := append(append([]string(nil), f.Command[1:]...), contract)
	cmd := exec.CommandContext(ctx, f.Command[0], args...)
	cmd.Dir = f.Root
	cmd.Env = append(os.Environ(), f.Env...)

	stdout := &limitedBuffer{limit: limit}
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	log := f.log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("contract", contract)
	log.WithField("cmd", strings.Join(cmd.Args, " ")).Debug("running flatten command")

	err := cmd.Run()
	if stdout.overflow {
		return "", fmt.Errorf("%w (%d bytes)", ErrMaxOutputExceeded, limit)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", strings.Join(cmd.Args, " "), err, msg)
		}
		return "", fmt.Errorf("%s: %w", strings.Join(cmd.Args, " "), err)
	}

	out, err := filepath.Abs(filepath.Join(f.Root, OutputFile))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(out, stdout.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	log.WithField("bytes", stdout.Len()).Debug("flattened source written")
	return out, nil
}

// limitedBuffer stops accepting writes once limit bytes are stored. The
// failed write makes the child see a broken pipe.
type limitedBuffer struct {
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if b.buf.Len()+len(p) > b.limit {
		b.overflow = true
		return 0, ErrMaxOutputExceeded
	}
	return b.buf.Write(p)
}

func (b *limitedBuffer) Bytes() []byte {
	return b.buf.Bytes()
}

func (b *limitedBuffer) Len() int {
	return b.buf.Len()
}
