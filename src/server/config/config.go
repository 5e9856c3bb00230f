package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	prodConfigDir  = "/var/lib/cm-utils"
	configFileName = "config.yaml"
)

type Config struct {
	DeviceID        string `yaml:"device_id"`
	Type            string `yaml:"type,omitempty"`
	ServeExternally bool   `yaml:"serve_externally,omitempty"`

	// NodePath is the node JSON configuration document to load at boot
	// (see src/fxt/node.Load). Empty means "boot with no node; wait for
	// the command surface to load one."
	NodePath string `yaml:"node_path,omitempty"`
	// BindAddress is the chassis command surface's listen address, e.g.
	// ":9080". Empty falls back to the teacher's default of ":9080".
	BindAddress string `yaml:"bind_address,omitempty"`
}

var (
	cfg     Config
	cfgOnce sync.Once
	cfgMu   sync.RWMutex
)

func init() {
	cfgOnce.Do(func() {
		if err := loadConfig(); err != nil {
			log.Printf("Config: failed to load, using generated values: %v", err)
		}
	})
}

func GetConfig() Config {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return cfg
}

func GetDeviceID() string {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return cfg.DeviceID
}

func GetNodePath() string {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return cfg.NodePath
}

func GetBindAddress() string {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	if cfg.BindAddress == "" {
		return ":9080"
	}
	return cfg.BindAddress
}

func getConfigPath() string {
	if dir := os.Getenv("CM_UTILS_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, configFileName)
	}
	if info, err := os.Stat(prodConfigDir); err == nil && info.IsDir() {
		testFile := filepath.Join(prodConfigDir, ".write_test")
		if f, err := os.Create(testFile); err == nil {
			f.Close()
			os.Remove(testFile)
			return filepath.Join(prodConfigDir, configFileName)
		}
	}
	return filepath.Join("tmp", configFileName)
}

func generateUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func loadConfig() error {
	cfgMu.Lock()
	defer cfgMu.Unlock()

	path := getConfigPath()
	fmt.Println("Config:", path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return createDefaultConfig(path)
		}
		return err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}

	if cfg.DeviceID == "" {
		uuid, err := generateUUID()
		if err != nil {
			return err
		}
		cfg.DeviceID = uuid
		return saveConfigLocked(path)
	}

	return nil
}

func createDefaultConfig(path string) error {
	uuid, err := generateUUID()
	if err != nil {
		return err
	}
	cfg.DeviceID = uuid
	return saveConfigLocked(path)
}

func saveConfigLocked(path string) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
