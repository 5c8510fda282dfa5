// Package main runs a Gate Minecraft proxy with TemplatePlugin compiled in.
package main

import (
	"log"
	"os"

	"go.minekube.com/gate/cmd/gate"
	"go.minekube.com/gate/pkg/edition/java/proxy"

	"github.com/man10/templateplugin/internal/gatehost"
	"github.com/man10/templateplugin/internal/logger"
)

const (
	dataDirEnv   = "TEMPLATEPLUGIN_DATA_DIR"
	logLevelEnv  = "TEMPLATEPLUGIN_LOG_LEVEL"
	logFormatEnv = "TEMPLATEPLUGIN_LOG_FORMAT"
)

func envString(name string, value string) string {
	envString := os.Getenv(name)
	if envString == "" {
		return value
	}

	return envString
}

func main() {
	pluginLog, err := logger.New(envString(logLevelEnv, "info"), envString(logFormatEnv, "text"))
	if err != nil {
		log.Fatalf("Failed to init logger; err: %s", err)
	}

	dataDir := envString(dataDirEnv, "plugins/TemplatePlugin")

	p, err := gatehost.Plugin(gatehost.Options{
		DataDir: dataDir,
		Logger:  pluginLog,
	})
	if err != nil {
		pluginLog.Error(err, "failed to load plugin descriptor")
		os.Exit(1)
	}

	pluginLog.Info("registering plugin", "name", p.Name, "dataDir", dataDir)
	proxy.Plugins = append(proxy.Plugins, p)

	gate.Execute()
}
