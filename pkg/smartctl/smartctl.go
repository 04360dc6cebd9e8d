// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package smartctl acquires raw telemetry documents by running smartctl from
// smartmontools.
package smartctl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/drivecheck/pkg/discovery"
)

// ErrNotInstalled is returned when the smartctl binary cannot be found.
var ErrNotInstalled = errors.New("smartctl is not installed. please install smartmontools package")

// Exit status bits, see smartctl(8) "RETURN VALUES".
const (
	ExitCommandLine   = 1 << 0 // command line did not parse
	ExitDeviceOpen    = 1 << 1 // device open failed or device did not return an IDENTIFY response
	ExitCommandFailed = 1 << 2 // some SMART or other ATA command failed
	ExitDiskFailing   = 1 << 3 // SMART status check returned "DISK FAILING"
	ExitPrefail       = 1 << 4 // prefail attributes at or below threshold
	ExitPastPrefail   = 1 << 5 // usage or prefail attributes were at or below threshold in the past
	ExitErrorLog      = 1 << 6 // the device error log contains records of errors
	ExitSelfTestLog   = 1 << 7 // the self-test log contains records of errors
)

// fatalExitBits mean no usable document was produced.
const fatalExitBits = ExitCommandLine | ExitDeviceOpen

// AcquisitionError reports a failed smartctl invocation for one device.
type AcquisitionError struct {
	Device     string
	ExitStatus int
	Err        error
}

func (e *AcquisitionError) Error() string {
	if e.ExitStatus > 0 {
		return fmt.Sprintf("error running smartctl for %s (exit status %d): %v", e.Device, e.ExitStatus, e.Err)
	}
	return fmt.Sprintf("error running smartctl for %s: %v", e.Device, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// ExecFunc runs a command and returns its stdout and exit status. A non-zero
// exit status alone is not an error.
type ExecFunc func(ctx context.Context, name string, args ...string) (stdout []byte, exitStatus int, err error)

func execCommand(ctx context.Context, name string, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctx.Err() != nil {
			return stdout.Bytes(), exitErr.ExitCode(), ctx.Err()
		}
		if stderr.Len() > 0 {
			log.Debug().Str("command", name).Str("stderr", stderr.String()).Msg("command wrote to stderr")
		}
		return stdout.Bytes(), exitErr.ExitCode(), nil
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return nil, -1, fmt.Errorf("%w: %v", ErrNotInstalled, err)
	}
	if err != nil {
		return nil, -1, err
	}
	return stdout.Bytes(), 0, nil
}

// Runner invokes smartctl.
type Runner struct {
	// Path of the smartctl binary, "smartctl" when empty.
	Path string
	// Timeout bounds every single invocation; zero means no timeout.
	Timeout time.Duration
	// Exec defaults to running the real process.
	Exec ExecFunc
}

func (r Runner) binary() string {
	if r.Path == "" {
		return "smartctl"
	}
	return r.Path
}

func (r Runner) exec(ctx context.Context, args ...string) ([]byte, int, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	run := r.Exec
	if run == nil {
		run = execCommand
	}
	return run(ctx, r.binary(), args...)
}

// CheckInstalled verifies the smartctl binary can be found.
func (r Runner) CheckInstalled() error {
	if r.Exec != nil {
		return nil
	}
	if _, err := exec.LookPath(r.binary()); err != nil {
		return fmt.Errorf("%w: %v", ErrNotInstalled, err)
	}
	return nil
}

// Collect returns the smartctl JSON document for dev: identity, health and
// attributes ("-i -H -A -j").
func (r Runner) Collect(ctx context.Context, dev discovery.StorageDevice) ([]byte, error) {
	args := []string{"-i", "-H", "-A", "-j"}
	args = append(args, dev.Args...)
	args = append(args, dev.Path)

	out, status, err := r.exec(ctx, args...)
	if err != nil {
		return nil, &AcquisitionError{Device: dev.Path, ExitStatus: status, Err: err}
	}
	if status < 0 || status&fatalExitBits != 0 {
		return nil, &AcquisitionError{Device: dev.Path, ExitStatus: status, Err: errors.New("smartctl could not read the device")}
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, &AcquisitionError{Device: dev.Path, ExitStatus: status, Err: errors.New("smartctl returned no output")}
	}
	if status != 0 {
		log.Debug().Str("disk", dev.Path).Int("exit_status", status).Strs("reasons", ExitReasons(status)).Msg("smartctl reported device conditions")
	}
	return out, nil
}

var exitReasons = []string{
	"command_line",
	"device_open",
	"command_failed",
	"disk_failing",
	"prefail_threshold",
	"past_prefail_threshold",
	"error_log",
	"self_test_log",
}

// ExitReasons names the bits set in a smartctl exit status.
func ExitReasons(status int) []string {
	var reasons []string
	for bit, name := range exitReasons {
		if status&(1<<bit) != 0 {
			reasons = append(reasons, name)
		}
	}
	return reasons
}
