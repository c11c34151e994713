package gpu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const smiBinary = "nvidia-smi"

var smiArgs = []string{
	"--query-gpu=name,utilization.gpu,memory.used,memory.total,temperature.gpu",
	"--format=csv,noheader,nounits",
}

// smiLib reads NVIDIA devices from nvidia-smi CSV output. DeviceCount runs the
// query and Device indexes into the rows it captured.
type smiLib struct {
	timeout time.Duration
	run     func(timeout time.Duration, name string, args ...string) (string, error)
	rows    [][]string
}

func openSMI(timeout time.Duration) (nvmlLib, error) {
	if _, err := exec.LookPath(smiBinary); err != nil {
		return nil, err
	}
	lib := &smiLib{timeout: timeout, run: runCmd}
	if _, err := lib.DeviceCount(); err != nil {
		return nil, err
	}
	return lib, nil
}

func (l *smiLib) DeviceCount() (int, error) {
	out, err := l.run(l.timeout, smiBinary, smiArgs...)
	if err != nil {
		l.rows = nil
		return 0, fmt.Errorf("%s: %w", smiBinary, err)
	}
	l.rows = parseSMI(out)
	return len(l.rows), nil
}

func (l *smiLib) Device(index int) (nvmlDevice, error) {
	if index < 0 || index >= len(l.rows) {
		return nil, fmt.Errorf("no row for device %d", index)
	}
	row := l.rows[index]
	if len(row) < 5 {
		return nil, fmt.Errorf("malformed row for device %d: %q", index, strings.Join(row, ","))
	}
	return smiDevice(row), nil
}

func (l *smiLib) Close() error { return nil }

func parseSMI(out string) [][]string {
	var rows [][]string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		rows = append(rows, parts)
	}
	return rows
}

// smiDevice is one CSV row: name, util %, mem used MiB, mem total MiB, temp °C.
type smiDevice []string

func (d smiDevice) Name() (string, error) {
	if d[0] == "" {
		return "", errors.New("empty name")
	}
	return d[0], nil
}

func (d smiDevice) Utilization() (uint32, error) {
	v, err := parseMetric(d[1])
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func (d smiDevice) Memory() (uint64, uint64, error) {
	used, err := parseMetric(d[2])
	if err != nil {
		return 0, 0, err
	}
	total, err := parseMetric(d[3])
	if err != nil {
		return 0, 0, err
	}
	const mib = 1024 * 1024
	return uint64(total) * mib, uint64(used) * mib, nil
}

func (d smiDevice) Temperature() (uint32, error) {
	v, err := parseMetric(d[4])
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// parseMetric accepts "42", "42 %" and rejects "[N/A]" / "[Not Supported]".
func parseMetric(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative value %q", s)
	}
	return f, nil
}

func runCmd(timeout time.Duration, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if ctx.Err() == context.DeadlineExceeded {
		return "", ctx.Err()
	}
	return string(out), err
}
