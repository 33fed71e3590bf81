package config

import (
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"io/ioutil"
	"sync"
	"time"
)

// FrameState remembers the outcome of the last refresh across reboots.
// The frame usually powers itself off between refreshes, so this is
// what the status endpoint reports right after a wake up.
type FrameState struct {
	frameStateFile        frameStateFile
	lock                  sync.RWMutex
	backupTimer           *time.Timer
	completeStateFilename string
}

type frameStateFile struct {
	LastRefresh  time.Time `yaml:"last_refresh,omitempty"`
	LastError    string    `yaml:"last_error,omitempty"`
	BatteryLevel int64     `yaml:"battery_level"`
	PowerPlugged bool      `yaml:"power_plugged"`
	NextWake     time.Time `yaml:"next_wake,omitempty"`
}

func NewFrameState(completeStateFilename string) *FrameState {
	frameState := &FrameState{
		completeStateFilename: completeStateFilename,
	}
	frameState.frameStateFile.BatteryLevel = -1

	rawState, err := ioutil.ReadFile(completeStateFilename)
	if err == nil {
		if err = yaml.Unmarshal(rawState, &frameState.frameStateFile); err != nil {
			logrus.Warnf("Unable to interpret state file, starting fresh: %v", err)
			frameState.frameStateFile = frameStateFile{BatteryLevel: -1}
		}
	}

	return frameState
}

func (fs *FrameState) LastRefresh() time.Time {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	return fs.frameStateFile.LastRefresh
}

func (fs *FrameState) SetLastRefresh(at time.Time) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.frameStateFile.LastRefresh = at
	fs.scheduleSave()
}

func (fs *FrameState) LastError() string {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	return fs.frameStateFile.LastError
}

func (fs *FrameState) SetLastError(message string) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.frameStateFile.LastError = message
	fs.scheduleSave()
}

// BatteryLevel returns the last published level, -1 when unknown.
func (fs *FrameState) BatteryLevel() int64 {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	return fs.frameStateFile.BatteryLevel
}

func (fs *FrameState) SetBatteryLevel(level int64) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.frameStateFile.BatteryLevel = level
	fs.scheduleSave()
}

func (fs *FrameState) PowerPlugged() bool {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	return fs.frameStateFile.PowerPlugged
}

func (fs *FrameState) SetPowerPlugged(plugged bool) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.frameStateFile.PowerPlugged = plugged
	fs.scheduleSave()
}

func (fs *FrameState) NextWake() time.Time {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	return fs.frameStateFile.NextWake
}

func (fs *FrameState) SetNextWake(at time.Time) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.frameStateFile.NextWake = at
	fs.scheduleSave()
}

func (fs *FrameState) scheduleSave() {
	if fs.backupTimer == nil {
		fs.backupTimer = time.AfterFunc(10*time.Second, func() {
			fs.lock.Lock()
			defer fs.lock.Unlock()
			fs.save()
		})
	} else {
		fs.backupTimer.Reset(10 * time.Second)
	}
}

func (fs *FrameState) save() {
	logrus.Debugf("Save state file: %s", fs.completeStateFilename)
	rawState, err := yaml.Marshal(&fs.frameStateFile)
	if err != nil {
		logrus.Errorf("Unable to serialize state file: %v", err)
		return
	}
	if err = ioutil.WriteFile(fs.completeStateFilename, rawState, 0660); err != nil {
		logrus.Errorf("Unable to save state file: %v", err)
	}
}

func (fs *FrameState) FlushSave() {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if fs.backupTimer != nil {
		if fs.backupTimer.Stop() {
			fs.save()
		}
	}
}
