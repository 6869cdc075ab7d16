package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/memberhub/internal/app/api/server"
	"github.com/fatflowers/memberhub/internal/app/service/account"
	"github.com/fatflowers/memberhub/internal/app/service/eventlog"
	"github.com/fatflowers/memberhub/internal/app/service/webhook"
	"github.com/fatflowers/memberhub/internal/platform/db"
	"github.com/fatflowers/memberhub/pkg/config"
	"github.com/fatflowers/memberhub/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	server.Module,
	account.Module,
	eventlog.Module,
	webhook.Module,
)
