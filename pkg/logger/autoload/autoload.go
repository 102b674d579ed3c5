// Package autoload initializes the global logger from LOG_* environment
// variables as a side effect of being imported.
package autoload

import (
	configx "github.com/shoptalk-ai/shoptalk/pkg/config"
	logx "github.com/shoptalk-ai/shoptalk/pkg/logger"
)

func init() {
	conf := configx.MustNew[logx.Config]("LOG")
	logx.Init(*conf)
}
