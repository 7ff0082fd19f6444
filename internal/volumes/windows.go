package volumes

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/trustnocode/auditdash/internal/logging"
	"github.com/trustnocode/auditdash/internal/metrics"
)

var driveLine = regexp.MustCompile(`^[A-Z]:$`)

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// WindowsProbe lists logical drives through wmic, falling back to probing
// each drive letter when the command fails or times out.
type WindowsProbe struct {
	Timeout time.Duration

	run  commandRunner
	stat statFunc
}

// NewWindowsProbe returns a probe whose listing command is bounded by timeout.
func NewWindowsProbe(timeout time.Duration) *WindowsProbe {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &WindowsProbe{
		Timeout: timeout,
		run:     runCommand,
		stat:    os.Stat,
	}
}

// ListVolumes returns drive roots such as `C:\`.
func (p *WindowsProbe) ListVolumes(ctx context.Context) []string {
	run := p.run
	if run == nil {
		run = runCommand
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := run(cctx, "wmic", "logicaldisk", "get", "name")
	if err == nil {
		if drives := parseDrives(out); len(drives) > 0 {
			return drives
		}
		err = errNoDrives
	}

	metrics.RecordVolumeProbeFallback()
	logging.Debug("volume command failed, probing drive letters", logging.Err(err))
	return p.probeLetters()
}

var errNoDrives = errors.New("no drives in command output")

func parseDrives(out []byte) []string {
	var drives []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if driveLine.MatchString(line) {
			drives = append(drives, line+`\`)
		}
	}
	return dedupe(drives)
}

func (p *WindowsProbe) probeLetters() []string {
	stat := p.stat
	if stat == nil {
		stat = os.Stat
	}
	drives := []string{}
	for letter := 'B'; letter <= 'Z'; letter++ {
		root := string(letter) + `:\`
		if exists(stat, root) {
			drives = append(drives, root)
		}
	}
	return drives
}
