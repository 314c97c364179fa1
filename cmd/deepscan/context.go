package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"deepscan/internal/config"
	"deepscan/internal/detection"
	"deepscan/internal/history"
	"deepscan/internal/logging"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	log        *slog.Logger
	logErr     error

	engineOnce sync.Once
	engine     *detection.Engine
	engineErr  error
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger writes to deepscan.log in the log directory, and to stderr when
// --verbose is set or forceStderr is true.
func (c *commandContext) logger(forceStderr bool) (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logErr = err
			return
		}
		verbose := c.verboseFlag != nil && *c.verboseFlag
		c.log, c.logErr = logging.NewFromConfig(cfg, forceStderr || verbose)
	})
	return c.log, c.logErr
}

func (c *commandContext) detectionEngine() (*detection.Engine, error) {
	c.engineOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.engineErr = err
			return
		}
		logger, err := c.logger(false)
		if err != nil {
			c.engineErr = err
			return
		}
		c.engine, c.engineErr = detection.NewFromConfig(cfg, logger)
	})
	return c.engine, c.engineErr
}

// openHistory returns nil without error when history is disabled. Callers
// close the store.
func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, nil
	}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

// requireHistory is openHistory for commands that cannot run without it.
func (c *commandContext) requireHistory() (*history.Store, error) {
	store, err := c.openHistory()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("history is disabled (set [history] enabled = true)")
	}
	return store, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
