package logger

import "log/slog"

type Backend string

const (
	BackendStd Backend = "std" // slog text handler, meant for dev
	BackendZap Backend = "zap" // zap JSON core behind slog
)

type Config struct {
	Service    string
	Version    string
	InstanceID string

	Level   slog.Level
	Env     Env
	Backend Backend // default: zap for stage/prod, std for dev
	Debug   bool

	// Zap sampling
	SampleInitial    int
	SampleThereafter int

	AddSource bool
}
