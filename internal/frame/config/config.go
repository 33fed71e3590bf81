package config

import (
	"fmt"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"io/ioutil"
	"os"
	"path/filepath"
)

const paramFilename = "param.yaml"
const stateFilename = "state.yaml"
const envFilename = ".env"

type FrameConfig struct {
	ConfigDir string
	DebugMode bool

	*FrameParam
	*FrameState
}

func NewFrameConfig(configDir string, debugMode bool) (*FrameConfig, error) {
	frameConfig := &FrameConfig{
		ConfigDir: configDir,
		DebugMode: debugMode,
	}

	// Check configuration folder
	_, err := os.Stat(configDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("unable to access config folder %s: %w", configDir, err)
		}
		logrus.Printf("Creation of config folder: %s", configDir)
		if err = os.MkdirAll(configDir, 0770); err != nil {
			return nil, fmt.Errorf("unable to create config folder: %w", err)
		}
	}

	// Open param file
	rawConfig, err := ioutil.ReadFile(frameConfig.GetCompleteParamFilename())
	if err == nil {
		frameConfig.FrameParam = &FrameParam{}
		if err = yaml.Unmarshal(rawConfig, frameConfig.FrameParam); err != nil {
			return nil, &ConfigError{Field: paramFilename, Err: err}
		}
	} else if os.IsNotExist(err) {
		// Create default param file, keeping its comments
		logrus.Infof("Create default param file: %s", frameConfig.GetCompleteParamFilename())
		if err = ioutil.WriteFile(frameConfig.GetCompleteParamFilename(), ParamDefaultFile, 0660); err != nil {
			return nil, fmt.Errorf("unable to create default param file: %w", err)
		}
		frameConfig.FrameParam = &FrameParam{}
		if err = yaml.Unmarshal(ParamDefaultFile, frameConfig.FrameParam); err != nil {
			return nil, fmt.Errorf("unable to interpret default param file: %w", err)
		}
	} else {
		return nil, fmt.Errorf("unable to read param file: %w", err)
	}

	// Credentials can be kept out of the param file
	frameConfig.loadEnvOverrides()

	frameConfig.FrameParam.applyDefaults()
	if err = frameConfig.FrameParam.validate(); err != nil {
		return nil, err
	}

	// Open state file
	frameConfig.FrameState = NewFrameState(frameConfig.GetCompleteStateFilename())

	return frameConfig, nil
}

func (fc *FrameConfig) loadEnvOverrides() {
	if err := godotenv.Load(filepath.Join(fc.ConfigDir, envFilename)); err != nil {
		logrus.Debugf("No .env file in %s", fc.ConfigDir)
	}
	if fc.FrameParam.MqttParam != nil {
		fc.FrameParam.MqttParam.Username = getEnv("INKFRAME_MQTT_USERNAME", fc.FrameParam.MqttParam.Username)
		fc.FrameParam.MqttParam.Password = getEnv("INKFRAME_MQTT_PASSWORD", fc.FrameParam.MqttParam.Password)
	}
	fc.FrameParam.ApiParam.ApiKey = getEnv("INKFRAME_API_KEY", fc.FrameParam.ApiParam.ApiKey)
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func (fc *FrameConfig) GetCompleteParamFilename() string {
	return filepath.Join(fc.ConfigDir, paramFilename)
}

func (fc *FrameConfig) GetCompleteStateFilename() string {
	return filepath.Join(fc.ConfigDir, stateFilename)
}
