package main

import (
	"github.com/csmizzle/conductor/internal/server"
	"github.com/csmizzle/conductor/internal/util"
	"github.com/csmizzle/conductor/pkg/logger"
	"github.com/csmizzle/conductor/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
