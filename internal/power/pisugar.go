// Package power reads the pisugar ups over its local tcp protocol and
// programs the rtc wake alarm that powers the frame back up.
package power

import (
	"bufio"
	"context"
	"fmt"
	"github.com/sirupsen/logrus"
	"net"
	"strconv"
	"strings"
	"time"
)

// Weekday mask of rtc_alarm_set with every day set.
const alarmRepeatDaily = 127

// PiSugar talks to a pisugar-server instance, normally on 127.0.0.1:8423.
// Each call dials a fresh connection.
type PiSugar struct {
	address string
	timeout time.Duration
}

func NewPiSugar(address string, timeout time.Duration) *PiSugar {
	return &PiSugar{address: address, timeout: timeout}
}

// BatteryLevel returns the charge truncated to a percentage in [0, 100].
func (p *PiSugar) BatteryLevel(ctx context.Context) (int64, error) {
	value, err := p.get(ctx, "battery")
	if err != nil {
		return 0, err
	}

	charge, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("pisugar get battery: unexpected reply %q", value)
	}

	level := int64(charge)
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	return level, nil
}

// PowerPlugged reports whether external power is connected.
func (p *PiSugar) PowerPlugged(ctx context.Context) (bool, error) {
	value, err := p.get(ctx, "battery_power_plugged")
	if err != nil {
		return false, err
	}

	plugged, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("pisugar get battery_power_plugged: unexpected reply %q", value)
	}
	return plugged, nil
}

// RtcTime returns the clock of the ups rtc. Wake alarms are computed from
// it rather than from the pi clock.
func (p *PiSugar) RtcTime(ctx context.Context) (time.Time, error) {
	value, err := p.get(ctx, "rtc_time")
	if err != nil {
		return time.Time{}, err
	}

	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("pisugar get rtc_time: unexpected reply %q", value)
	}
	return at, nil
}

// SyncRtc copies the pi clock to the rtc.
func (p *PiSugar) SyncRtc(ctx context.Context) error {
	reply, err := p.call(ctx, "rtc_pi2rtc")
	if err != nil {
		return err
	}
	if !strings.Contains(reply, "done") {
		return fmt.Errorf("pisugar rtc_pi2rtc: unexpected reply %q", reply)
	}
	return nil
}

// SetWakeAlarm programs the rtc to power the pi back up at the given time,
// repeating daily.
func (p *PiSugar) SetWakeAlarm(ctx context.Context, at time.Time) error {
	command := fmt.Sprintf("rtc_alarm_set %s %d", at.Format(time.RFC3339), alarmRepeatDaily)

	reply, err := p.call(ctx, command)
	if err != nil {
		return err
	}
	if !strings.Contains(reply, "done") {
		return fmt.Errorf("pisugar rtc_alarm_set: unexpected reply %q", reply)
	}
	return nil
}

// get runs `get <key>` and strips the `<key>: ` echo off the reply.
func (p *PiSugar) get(ctx context.Context, key string) (string, error) {
	reply, err := p.call(ctx, "get "+key)
	if err != nil {
		return "", err
	}

	value := strings.TrimPrefix(reply, key+": ")
	if value == reply {
		return "", fmt.Errorf("pisugar get %s: unexpected reply %q", key, reply)
	}
	return value, nil
}

// call sends one command and reads the single reply line.
func (p *PiSugar) call(ctx context.Context, command string) (string, error) {
	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.address)
	if err != nil {
		return "", fmt.Errorf("pisugar %s: %w", p.address, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(p.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	conn.SetDeadline(deadline)

	if _, err = fmt.Fprintf(conn, "%s\n", command); err != nil {
		return "", fmt.Errorf("pisugar %s: %w", command, err)
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("pisugar %s: %w", command, err)
	}
	reply = strings.TrimSpace(reply)

	logrus.Debugf("PiSugar %q -> %q", command, reply)

	return reply, nil
}
