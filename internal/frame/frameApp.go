package frame

import (
	"context"
	"errors"
	"fmt"
	"github.com/sirupsen/logrus"
	"github.com/velotales/inkframe/internal/frame/config"
	"github.com/velotales/inkframe/internal/frame/event"
	"github.com/velotales/inkframe/internal/mqtt"
	"github.com/velotales/inkframe/internal/panel"
	"github.com/velotales/inkframe/internal/power"
	"github.com/velotales/inkframe/internal/render"
	"github.com/velotales/inkframe/internal/source"
	"github.com/velotales/inkframe/internal/version"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// batteryPublisher is what the frame needs from the mqtt package.
type batteryPublisher interface {
	PublishBattery(level int64) error
	Close()
}

// powerManager is what the frame needs from the pisugar client.
type powerManager interface {
	BatteryLevel(ctx context.Context) (int64, error)
	PowerPlugged(ctx context.Context) (bool, error)
	RtcTime(ctx context.Context) (time.Time, error)
	SyncRtc(ctx context.Context) error
	SetWakeAlarm(ctx context.Context, at time.Time) error
}

type FrameApp struct {
	*config.FrameConfig

	panelDevice panel.Panel
	imageSource source.Source
	publisher   batteryPublisher
	piSugar     powerManager
	apiDevice   *Api

	loopStarted bool
	loopAskDone chan bool
	loopDone    chan bool
}

func NewFrameApp(configDir string, debugMode bool) *FrameApp {
	logrus.Debugf("Creation of inkframe %s ...", version.App)

	frameConfig, err := config.NewFrameConfig(configDir, debugMode)
	if err != nil {
		logrus.Fatalf("Unable to load configuration: %v", err)
	}

	app := &FrameApp{
		FrameConfig: frameConfig,
		loopAskDone: make(chan bool),
		loopDone:    make(chan bool),
	}

	if sourceParam := app.FrameParam.SourceParam; sourceParam.Path != "" {
		app.imageSource = source.NewFileSource(sourceParam.Path)
	} else {
		app.imageSource = source.NewHttpSource(sourceParam.Url, time.Duration(sourceParam.TimeoutSeconds)*time.Second)
	}

	if mqttParam := app.FrameParam.MqttParam; mqttParam != nil {
		app.publisher = mqtt.NewPublisher(mqtt.Options{
			Host:       mqttParam.Host,
			Port:       mqttParam.Port,
			ClientId:   mqttParam.ClientId,
			Username:   mqttParam.Username,
			Password:   mqttParam.Password,
			SensorName: mqttParam.SensorName,
			UniqueId:   mqttParam.UniqueId,
			StateTopic: mqttParam.StateTopic,
			Device: mqtt.Device{
				Identifiers:  []string{mqttParam.UniqueId},
				Name:         mqttParam.DeviceName,
				Model:        mqttParam.DeviceModel,
				Manufacturer: mqttParam.DeviceManufacturer,
			},
		})
	}

	if powerParam := app.FrameParam.PowerParam; powerParam != nil {
		app.piSugar = power.NewPiSugar(powerParam.Address, time.Duration(powerParam.TimeoutSeconds)*time.Second)
	}

	if app.FrameParam.ApiParam.Enabled {
		app.apiDevice = NewApi(app.FrameConfig)
	}

	logrus.Debugln("Frame created")

	return app
}

// RunOnce runs a single refresh and returns, for cron-style setups and
// the -once flag. No wake alarm is programmed and nothing is powered off.
func (app *FrameApp) RunOnce() error {
	ctx := context.Background()

	err := app.refreshCycle(ctx)

	// Battery reporting is independent of the display outcome, but an
	// acquisition failure aborts the cycle before it
	var displayErr *panel.DisplayError
	if err == nil || errors.As(err, &displayErr) {
		app.publishBattery(ctx)
	}

	if app.panelDevice != nil {
		if closeErr := app.panelDevice.Close(); closeErr != nil {
			logrus.Warnf("Unable to close the panel: %v", closeErr)
		}
	}
	if app.publisher != nil {
		app.publisher.Close()
	}

	app.FrameState.FlushSave()

	return err
}

// Start runs the first refresh, programs the wake alarm and reports the
// battery. On battery power it then asks for the shutdown path, on
// external power it stays up, refreshing every alarm interval.
func (app *FrameApp) Start() {
	logrus.Printf("Starting inkframe %s ...", version.App)

	ctx := context.Background()

	if err := app.refreshCycle(ctx); err != nil {
		logrus.Errorf("Refresh failed: %v", err)
	}

	app.setWakeAlarm(ctx)
	app.publishBattery(ctx)

	if !app.powerPlugged(ctx) {
		logrus.Printf("Running on battery, powering off until the wake alarm")
		app.showLowBatteryCard()
		syscall.Kill(syscall.Getpid(), syscall.SIGUSR1)
		return
	}

	logrus.Printf("External power detected, staying up")

	if app.apiDevice != nil {
		app.apiDevice.Start()
	}

	app.loopStarted = true
	go app.updateLoop()
}

// Stop releases every device and exits. With shutdown set the host is
// powered off, the rtc alarm brings it back.
func (app *FrameApp) Stop(shutdown bool) {
	logrus.Printf("Stopping inkframe ...")

	if app.apiDevice != nil {
		app.apiDevice.StopSendingEvent()
	}

	if app.loopStarted {
		logrus.Infof("Stop update loop")
		app.loopAskDone <- true
		<-app.loopDone
	}

	if app.panelDevice != nil {
		if err := app.panelDevice.Close(); err != nil {
			logrus.Warnf("Unable to close the panel: %v", err)
		}
	}

	if app.publisher != nil {
		app.publisher.Close()
	}

	app.FrameState.FlushSave()

	logrus.Printf("Frame stopped")

	if shutdown && app.FrameParam.PowerParam != nil && !app.FrameParam.PowerParam.NoShutdown {
		logrus.Printf("System shutdown")
		shutdownCmd := exec.Command("sudo", "shutdown", "+1")
		if err := shutdownCmd.Run(); err != nil {
			logrus.Panicf("Unable to shut the system down: %v", err)
		}
	}
	os.Exit(0)
}

// ShowTestCard opens the panel and draws the build card, for checking the
// wiring without a picture source.
func (app *FrameApp) ShowTestCard() error {
	if err := app.openPanel(); err != nil {
		return err
	}

	bounds := app.panelDevice.Bounds()
	card := render.Card(bounds,
		"inkframe "+version.App.String(),
		app.FrameParam.DisplayParam.Panel,
		fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
		time.Now().Format("2006-01-02 15:04"),
	)

	if err := app.panelDevice.Render(card); err != nil {
		app.panelDevice.Close()
		return err
	}
	return app.panelDevice.Close()
}

func (app *FrameApp) updateLoop() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	// A nil channel never fires when the api is disabled
	var apiEvents chan event.ApiEvent
	if app.apiDevice != nil {
		apiEvents = app.apiDevice.EventChannel()
	}

	nextRefresh := time.Now().Add(app.refreshInterval())

	for loop := true; loop; {
		select {
		case ev := <-apiEvents:
			switch ev.Data.(type) {
			case event.ApiEventRefreshData:
				logrus.Infof("Receive refresh request")
				err := app.refreshCycle(context.Background())
				ev.Result <- err
				nextRefresh = time.Now().Add(app.refreshInterval())
			}
		case <-ticker.C:
			ctx := context.Background()
			if !app.powerPlugged(ctx) {
				logrus.Printf("External power lost, powering off until the wake alarm")
				syscall.Kill(syscall.Getpid(), syscall.SIGUSR1)
				break
			}
			if time.Now().After(nextRefresh) {
				if err := app.refreshCycle(ctx); err != nil {
					logrus.Errorf("Refresh failed: %v", err)
				}
				app.setWakeAlarm(ctx)
				app.publishBattery(ctx)
				nextRefresh = time.Now().Add(app.refreshInterval())
			}
		case <-app.loopAskDone:
			loop = false
		}
	}
	app.loopDone <- true
}

// refreshCycle runs one acquire, prepare, show pass. The panel is opened
// after the first successful acquisition, so a frame that cannot get a
// picture never touches the display. A failed cycle leaves the previous
// picture up, the next wake is the retry.
func (app *FrameApp) refreshCycle(ctx context.Context) error {
	logrus.Infof("Refresh from %s", app.imageSource)

	img, err := app.imageSource.Resolve(ctx)
	if err != nil {
		app.FrameState.SetLastError(err.Error())
		return err
	}

	if app.panelDevice == nil {
		if err = app.openPanel(); err != nil {
			app.FrameState.SetLastError(err.Error())
			return err
		}
	}

	displayParam := app.FrameParam.DisplayParam
	prepared := render.Prepare(img, app.panelDevice.Bounds(), displayParam.Rotation, render.Fit(displayParam.Fit))

	if err = app.panelDevice.Render(prepared); err != nil {
		app.FrameState.SetLastError(err.Error())
		return err
	}

	app.FrameState.SetLastRefresh(time.Now())
	app.FrameState.SetLastError("")

	return nil
}

func (app *FrameApp) openPanel() error {
	displayParam := app.FrameParam.DisplayParam

	panelDevice, err := panel.Open(displayParam.Panel, panel.Options{
		Color:  displayParam.Color,
		Output: displayParam.Output,
		Width:  displayParam.Width,
		Height: displayParam.Height,
	})
	if err != nil {
		return err
	}
	app.panelDevice = panelDevice

	bounds := panelDevice.Bounds()
	logrus.Infof("Opened panel %s (%dx%d)", panelDevice, bounds.Dx(), bounds.Dy())

	return nil
}

// publishBattery reads the charge and reports it, to the state file and,
// when a broker is configured, over mqtt. Failures are logged and never
// interrupt the display path.
func (app *FrameApp) publishBattery(ctx context.Context) {
	if app.piSugar == nil {
		return
	}

	level, err := app.piSugar.BatteryLevel(ctx)
	if err != nil {
		logrus.Warnf("Unable to read battery level: %v", err)
		return
	}
	app.FrameState.SetBatteryLevel(level)

	if plugged, err := app.piSugar.PowerPlugged(ctx); err == nil {
		app.FrameState.SetPowerPlugged(plugged)
	}

	if app.publisher == nil {
		return
	}
	if err = app.publisher.PublishBattery(level); err != nil {
		logrus.Warnf("Unable to publish battery level: %v", err)
	}
}

// setWakeAlarm programs the rtc for the next refresh. The rtc is synced
// from the pi clock first, which is only worth doing once the network,
// and with it ntp, is reachable.
func (app *FrameApp) setWakeAlarm(ctx context.Context) {
	if app.piSugar == nil {
		return
	}
	powerParam := app.FrameParam.PowerParam

	if !power.WaitOnline(ctx, powerParam.OnlineProbeUrl, time.Duration(powerParam.OnlineWaitSeconds)*time.Second) {
		logrus.Warnf("Still offline, programming the alarm against the unsynced rtc")
	} else if err := app.piSugar.SyncRtc(ctx); err != nil {
		logrus.Warnf("Unable to sync the rtc: %v", err)
	}

	rtcNow, err := app.piSugar.RtcTime(ctx)
	if err != nil {
		logrus.Warnf("Unable to read the rtc: %v", err)
		return
	}

	wakeAt := rtcNow.Add(time.Duration(powerParam.AlarmMinutes) * time.Minute)
	if err = app.piSugar.SetWakeAlarm(ctx, wakeAt); err != nil {
		logrus.Warnf("Unable to set the wake alarm: %v", err)
		return
	}

	app.FrameState.SetNextWake(wakeAt)
	logrus.Infof("Next wake alarm set for %s", wakeAt.Format(time.RFC3339))
}

// powerPlugged treats a read failure as plugged, the frame must not power
// itself off blind.
func (app *FrameApp) powerPlugged(ctx context.Context) bool {
	if app.piSugar == nil {
		return true
	}

	plugged, err := app.piSugar.PowerPlugged(ctx)
	if err != nil {
		logrus.Warnf("Unable to read power status: %v", err)
		return true
	}
	app.FrameState.SetPowerPlugged(plugged)
	return plugged
}

// showLowBatteryCard replaces the picture with a charge reminder when the
// level is at or under the configured threshold.
func (app *FrameApp) showLowBatteryCard() {
	powerParam := app.FrameParam.PowerParam
	if powerParam.LowBatteryCard <= 0 || app.panelDevice == nil {
		return
	}

	level := app.FrameState.BatteryLevel()
	if level < 0 || level > powerParam.LowBatteryCard {
		return
	}

	card := render.Card(app.panelDevice.Bounds(),
		"Battery low",
		fmt.Sprintf("%d%%", level),
		"Please charge me",
	)
	if err := app.panelDevice.Render(card); err != nil {
		logrus.Warnf("Unable to show the low battery card: %v", err)
	}
}

func (app *FrameApp) refreshInterval() time.Duration {
	if app.FrameParam.PowerParam == nil {
		return 20 * time.Minute
	}
	return time.Duration(app.FrameParam.PowerParam.AlarmMinutes) * time.Minute
}
