package power

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"
)

// fakeServer answers each connection with the scripted reply for the
// command it receives, the way pisugar-server echoes the key back.
func fakeServer(t *testing.T, replies map[string]string) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				command, err := bufio.NewReader(conn).ReadString('\n')
				if err != nil {
					return
				}
				reply, ok := replies[strings.TrimSpace(command)]
				if !ok {
					reply = "unknown command"
				}
				conn.Write([]byte(reply + "\n"))
			}(conn)
		}
	}()

	return listener.Addr().String()
}

func TestBatteryLevel(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    int64
		wantErr bool
	}{
		{name: "truncates the charge", reply: "battery: 84.25", want: 84},
		{name: "clamps above hundred", reply: "battery: 101.2", want: 100},
		{name: "clamps below zero", reply: "battery: -0.5", want: 0},
		{name: "rejects a malformed value", reply: "battery: full", wantErr: true},
		{name: "rejects a reply for another key", reply: "model: PiSugar3", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			address := fakeServer(t, map[string]string{"get battery": test.reply})
			piSugar := NewPiSugar(address, time.Second)

			level, err := piSugar.BatteryLevel(context.Background())
			if test.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("battery level: %v", err)
			}
			if level != test.want {
				t.Errorf("got %d, want %d", level, test.want)
			}
		})
	}
}

func TestPowerPlugged(t *testing.T) {
	address := fakeServer(t, map[string]string{
		"get battery_power_plugged": "battery_power_plugged: true",
	})
	piSugar := NewPiSugar(address, time.Second)

	plugged, err := piSugar.PowerPlugged(context.Background())
	if err != nil {
		t.Fatalf("power plugged: %v", err)
	}
	if !plugged {
		t.Error("expected plugged")
	}
}

func TestRtcTime(t *testing.T) {
	address := fakeServer(t, map[string]string{
		"get rtc_time": "rtc_time: 2021-06-26T16:09:34+02:00",
	})
	piSugar := NewPiSugar(address, time.Second)

	at, err := piSugar.RtcTime(context.Background())
	if err != nil {
		t.Fatalf("rtc time: %v", err)
	}
	want := time.Date(2021, 6, 26, 16, 9, 34, 0, time.FixedZone("", 2*60*60))
	if !at.Equal(want) {
		t.Errorf("got %s, want %s", at, want)
	}
}

func TestSyncRtc(t *testing.T) {
	address := fakeServer(t, map[string]string{"rtc_pi2rtc": "rtc_pi2rtc: done"})
	piSugar := NewPiSugar(address, time.Second)

	if err := piSugar.SyncRtc(context.Background()); err != nil {
		t.Fatalf("sync rtc: %v", err)
	}
}

// The alarm command must carry the rfc3339 time with its offset and the
// daily repeat mask, anything else is answered as unknown by the fake.
func TestSetWakeAlarm(t *testing.T) {
	address := fakeServer(t, map[string]string{
		"rtc_alarm_set 2021-06-26T16:09:34+02:00 127": "rtc_alarm_set: done",
	})
	piSugar := NewPiSugar(address, time.Second)

	at := time.Date(2021, 6, 26, 16, 9, 34, 0, time.FixedZone("", 2*60*60))
	if err := piSugar.SetWakeAlarm(context.Background(), at); err != nil {
		t.Fatalf("set wake alarm: %v", err)
	}
}

func TestServerUnreachable(t *testing.T) {
	piSugar := NewPiSugar("127.0.0.1:1", 100*time.Millisecond)

	if _, err := piSugar.BatteryLevel(context.Background()); err == nil {
		t.Fatal("expected an error when pisugar-server is unreachable")
	}
}
