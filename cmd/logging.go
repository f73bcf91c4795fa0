package cmd

import (
	"github.com/fabricio-araujo94/solid/config"
	"github.com/fabricio-araujo94/solid/log"
	"github.com/urfave/cli"
)

var logger = log.New("solid")

// Load the config file passed with --config, or the defaults, and set up
// logging. The -v and -vv flags take precedence over the configured level.
func setup(ctx *cli.Context) (*config.Config, error) {
	cfg := config.Defaults()
	if path := ctx.GlobalString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)
	log.ResetModuleLevels()
	for module, name := range cfg.Log.Modules {
		if level, err = log.ParseLevel(name); err != nil {
			return nil, err
		}
		log.SetModuleLevel(module, level)
	}
	setupLogging(ctx)

	return cfg, nil
}

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
