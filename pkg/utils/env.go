package utils

import (
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// LoadConfig loads a .env file from the given directory if present. Missing
// files are not an error; real deployments configure through the environment.
func LoadConfig(path string) {
	envFile := filepath.Join(path, ".env")
	if err := godotenv.Load(envFile); err != nil {
		logrus.Debugf("[CONFIG] No .env file loaded from %s: %v", envFile, err)
		return
	}
	logrus.Infof("[CONFIG] Loaded environment from %s", envFile)
}
